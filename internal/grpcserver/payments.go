// payment-requests/internal/grpcserver/payments.go
package grpcserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strconv"

	gp "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/payment-requests/internal/payments"
	apperr "github.com/example/payment-requests/pkg/errors"
)

// Service is the part of payments.Service the gRPC methods drive.
type Service interface {
	CreateRequest(ctx context.Context, in payments.CreateRequestInput) (payments.RequestView, error)
	SubmitAttempt(ctx context.Context, in payments.SubmitAttemptInput) (payments.AttemptView, error)
	Request(ctx context.Context, id int64) (payments.RequestView, error)
}

type PaymentsServer struct {
	Svc Service
}

// NewServer returns a grpc.Server with PaymentRequests, the health service
// and prometheus interceptors registered.
func NewServer(svc Service) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(gp.UnaryServerInterceptor),
		grpc.StreamInterceptor(gp.StreamServerInterceptor),
	)
	RegisterPaymentRequestsServer(grpcServer, &PaymentsServer{Svc: svc})

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, hs)

	gp.Register(grpcServer)
	return grpcServer
}

func (s *PaymentsServer) CreateRequest(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	account, ok1 := stringField(in, "account_number")
	amount, ok2 := decimalField(in, "amount")
	currency, ok3 := stringField(in, "currency")
	name, nameOK := optionalString(in, "name")
	if !(ok1 && ok2 && ok3 && nameOK) {
		return nil, toStatus(apperr.New(apperr.InvalidInput, "Invalid input"))
	}

	view, err := s.Svc.CreateRequest(ctx, payments.CreateRequestInput{
		RequesterAccount: account,
		Amount:           amount,
		Currency:         currency,
		Name:             name,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"status": "Payment request received", "received": view})
}

func (s *PaymentsServer) SubmitAttempt(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, ok1 := intField(in, "payment_request_id")
	paid, ok2 := decimalField(in, "payed_amount")
	account, ok3 := stringField(in, "payer_account_number")
	currency, ok4 := stringField(in, "payment_currency")
	name, nameOK := optionalString(in, "name")
	if !(ok1 && ok2 && ok3 && ok4 && nameOK) {
		return nil, toStatus(apperr.New(apperr.InvalidInput, "Invalid input"))
	}

	view, err := s.Svc.SubmitAttempt(ctx, payments.SubmitAttemptInput{
		RequestID:       id,
		PayerAccount:    account,
		PaidAmount:      paid,
		PaymentCurrency: currency,
		Name:            name,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"status": "Payment attempt succeeded", "received": view})
}

func (s *PaymentsServer) GetRequest(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, ok := intField(in, "request_id")
	if !ok {
		return nil, toStatus(apperr.New(apperr.InvalidInput, "Invalid input"))
	}
	view, err := s.Svc.Request(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(view)
}

// CodeOf maps an error code onto the closest gRPC status code.
func CodeOf(code apperr.Code) codes.Code {
	switch code {
	case apperr.InvalidInput, apperr.InvalidIban, apperr.UnsupportedCurrency:
		return codes.InvalidArgument
	case apperr.NotFound:
		return codes.NotFound
	case apperr.NotPending, apperr.Expired, apperr.AmountMismatch:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

func toStatus(err error) error {
	code := apperr.CodeOf(err)
	if code == apperr.StorageError {
		slog.Error("grpc call failed", "error", err)
	}
	return status.Error(CodeOf(code), apperr.MessageOf(err))
}

// toStruct goes through JSON so views keep their wire field names.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func stringField(in *structpb.Struct, key string) (string, bool) {
	v, ok := in.GetFields()[key]
	if !ok {
		return "", false
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", false
	}
	return s.StringValue, true
}

// optionalString is ok when key is absent, null or a string.
func optionalString(in *structpb.Struct, key string) (string, bool) {
	v, ok := in.GetFields()[key]
	if !ok {
		return "", true
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return "", true
	case *structpb.Value_StringValue:
		return kind.StringValue, true
	default:
		return "", false
	}
}

// decimalField accepts a decimal string or a number.
func decimalField(in *structpb.Struct, key string) (decimal.Decimal, bool) {
	v, ok := in.GetFields()[key]
	if !ok {
		return decimal.Zero, false
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		d, err := decimal.NewFromString(kind.StringValue)
		return d, err == nil
	case *structpb.Value_NumberValue:
		if math.IsNaN(kind.NumberValue) || math.IsInf(kind.NumberValue, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(kind.NumberValue), true
	default:
		return decimal.Zero, false
	}
}

// intField accepts an integral number or a decimal integer string.
func intField(in *structpb.Struct, key string) (int64, bool) {
	v, ok := in.GetFields()[key]
	if !ok {
		return 0, false
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n != math.Trunc(n) || math.Abs(n) > 1<<53 {
			return 0, false
		}
		return int64(n), true
	case *structpb.Value_StringValue:
		n, err := strconv.ParseInt(kind.StringValue, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
