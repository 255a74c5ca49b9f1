package grpcserver_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/payment-requests/internal/grpcserver"
	"github.com/example/payment-requests/internal/payments"
	"github.com/example/payment-requests/internal/rates"
	"github.com/example/payment-requests/internal/storage/memory"
	apperr "github.com/example/payment-requests/pkg/errors"
)

func dial(t *testing.T) *grpc.ClientConn {
	t.Helper()
	store := memory.New()
	require.NoError(t, rates.Seed(context.Background(), store, []rates.Rate{
		{Currency: "USD", ConversionRate: decimal.NewFromInt(1)},
		{Currency: "EUR", ConversionRate: decimal.RequireFromString("0.85")},
	}))
	svc, err := payments.New(payments.Config{
		Store:        store,
		Rates:        rates.New(rates.Config{Source: store}),
		ExpiryWindow: time.Hour,
	})
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	server := grpcserver.NewServer(svc)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func mustStruct(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

func TestPaymentRequestsRoundTrip(t *testing.T) {
	assertions := assert.New(t)
	ctx := context.Background()
	client := grpcserver.NewClient(dial(t))

	created, err := client.CreateRequest(ctx, mustStruct(t, map[string]any{
		"name":           "Alice",
		"account_number": "BE84 2543 7531 1863",
		"amount":         "100",
		"currency":       "USD",
	}))
	require.NoError(t, err)
	assertions.Equal("Payment request received", created.Fields["status"].GetStringValue())
	received := created.Fields["received"].GetStructValue()
	assertions.Equal("pending", received.Fields["status"].GetStringValue())
	assertions.Equal("100.00", received.Fields["amount"].GetStringValue())
	id := received.Fields["request_id"].GetNumberValue()

	settled, err := client.SubmitAttempt(ctx, mustStruct(t, map[string]any{
		"payment_request_id":   id,
		"name":                 "Bob",
		"payed_amount":         85.0,
		"payer_account_number": "DE89 3704 0044 0532 0130 00",
		"payment_currency":     "EUR",
	}))
	require.NoError(t, err)
	attempt := settled.Fields["received"].GetStructValue()
	assertions.Equal("executed", attempt.Fields["status"].GetStringValue())
	assertions.Equal("85.00", attempt.Fields["paid_amount"].GetStringValue())
	assertions.Equal("Alice", attempt.Fields["requester_name"].GetStringValue())

	got, err := client.GetRequest(ctx, mustStruct(t, map[string]any{"request_id": id}))
	require.NoError(t, err)
	assertions.Equal("executed", got.Fields["status"].GetStringValue())
}

func TestPaymentRequestsErrors(t *testing.T) {
	ctx := context.Background()
	client := grpcserver.NewClient(dial(t))

	created, err := client.CreateRequest(ctx, mustStruct(t, map[string]any{
		"account_number": "BE84 2543 7531 1863",
		"amount":         10,
		"currency":       "USD",
	}))
	require.NoError(t, err)
	id := created.Fields["received"].GetStructValue().Fields["request_id"].GetNumberValue()

	for name, test := range map[string]struct {
		call func() error
		code codes.Code
	}{
		"MissingField": {
			call: func() error {
				_, err := client.CreateRequest(ctx, mustStruct(t, map[string]any{"amount": 1, "currency": "USD"}))
				return err
			},
			code: codes.InvalidArgument,
		},
		"InvalidIban": {
			call: func() error {
				_, err := client.CreateRequest(ctx, mustStruct(t, map[string]any{"account_number": "1B45428", "amount": 1, "currency": "USD"}))
				return err
			},
			code: codes.InvalidArgument,
		},
		"AmountExponentTooLarge": {
			call: func() error {
				_, err := client.CreateRequest(ctx, mustStruct(t, map[string]any{"account_number": "BE84 2543 7531 1863", "amount": "1e900000000", "currency": "USD"}))
				return err
			},
			code: codes.InvalidArgument,
		},
		"FractionalID": {
			call: func() error {
				_, err := client.GetRequest(ctx, mustStruct(t, map[string]any{"request_id": 1.5}))
				return err
			},
			code: codes.InvalidArgument,
		},
		"UnknownRequest": {
			call: func() error {
				_, err := client.GetRequest(ctx, mustStruct(t, map[string]any{"request_id": id + 1}))
				return err
			},
			code: codes.NotFound,
		},
		"AmountMismatch": {
			call: func() error {
				_, err := client.SubmitAttempt(ctx, mustStruct(t, map[string]any{
					"payment_request_id":   id,
					"payed_amount":         "9.99",
					"payer_account_number": "DE89 3704 0044 0532 0130 00",
					"payment_currency":     "USD",
				}))
				return err
			},
			code: codes.FailedPrecondition,
		},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.code, status.Code(test.call()))
		})
	}
}

func TestCodeOf(t *testing.T) {
	assertions := assert.New(t)
	assertions.Equal(codes.InvalidArgument, grpcserver.CodeOf(apperr.UnsupportedCurrency))
	assertions.Equal(codes.FailedPrecondition, grpcserver.CodeOf(apperr.Expired))
	assertions.Equal(codes.FailedPrecondition, grpcserver.CodeOf(apperr.NotPending))
	assertions.Equal(codes.Internal, grpcserver.CodeOf(apperr.StorageError))
}

func TestHealth(t *testing.T) {
	resp, err := healthpb.NewHealthClient(dial(t)).Check(context.Background(), &healthpb.HealthCheckRequest{
		Service: grpcserver.ServiceName,
	})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
