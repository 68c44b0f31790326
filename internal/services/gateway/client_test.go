package gateway

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	apperrors "paybaba/internal/errors"
	"paybaba/internal/models"
	"paybaba/internal/services/signing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

var testKey *rsa.PrivateKey

func init() {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(err)
	}
	testKey = key
}

type capturedRequest struct {
	path    string
	body    []byte
	headers map[string]string
}

type fakeGateway struct {
	mu       sync.Mutex
	requests []capturedRequest
	status   int
	reply    []byte
}

func (g *fakeGateway) handle(ctx *fasthttp.RequestCtx) {
	g.mu.Lock()
	defer g.mu.Unlock()
	headers := map[string]string{}
	for _, h := range []string{HeaderTimestamp, HeaderSignature, HeaderPartnerID, HeaderRequestID, HeaderContentType} {
		headers[h] = string(ctx.Request.Header.Peek(h))
	}
	g.requests = append(g.requests, capturedRequest{
		path:    string(ctx.Path()),
		body:    append([]byte(nil), ctx.PostBody()...),
		headers: headers,
	})
	ctx.SetStatusCode(g.status)
	ctx.SetBody(g.reply)
}

func (g *fakeGateway) last() capturedRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

var fixedNow = time.Date(2024, 5, 1, 3, 4, 5, 678000000, time.UTC)

func newTestClient(t *testing.T, gw *fakeGateway, signer *signing.Signer) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = fasthttp.Serve(ln, gw.handle) }()
	t.Cleanup(func() { _ = ln.Close() })

	doer := &fasthttp.Client{
		Dial: func(string) (net.Conn, error) { return ln.Dial() },
	}
	client, err := NewClient(Config{
		PartnerID:   "010001",
		Environment: EnvironmentSandbox,
		BaseURL:     "http://gateway.test",
		Location:    LoadLocation("Asia/Jakarta"),
	}, signer,
		WithHTTPDoer(doer),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func(now time.Time) string {
			return generateRequestID(now, LoadLocation("Asia/Jakarta"), func() int { return 12345 })
		}),
	)
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresPartnerID(t *testing.T) {
	_, err := NewClient(Config{}, signing.NewSigner(testKey, &testKey.PublicKey))
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestSendRequest_SignsExactOutboundBytes(t *testing.T) {
	gw := &fakeGateway{status: 200, reply: []byte(`{"errCode":"0","qrCode":"000201"}`)}
	signer := signing.NewSigner(testKey, &testKey.PublicKey)
	client := newTestClient(t, gw, signer)

	resp, err := client.SendRequest(context.Background(), "payment/v2.1/qris/create", map[string]interface{}{
		"amount":      "10000.00",
		"productName": "Kopi <Susu> & Roti",
	}, RequestOptions{})
	require.NoError(t, err)

	assert.True(t, resp.Parsed)
	assert.True(t, resp.Succeeded())
	assert.Equal(t, "000201", resp.Body["qrCode"])
	assert.Equal(t, "2024050110040512345", resp.RequestID)

	req := gw.last()
	assert.Equal(t, "/payment/v2.1/qris/create", req.path)
	assert.Equal(t,
		`{"merchantId":"010001","requestId":"2024050110040512345","merchantTradeNo":"2024050110040512345","amount":"10000.00","productName":"Kopi <Susu> & Roti"}`,
		string(req.body))
	assert.Equal(t, "2024-05-01T10:04:05.678+07:00", req.headers[HeaderTimestamp])
	assert.Equal(t, "010001", req.headers[HeaderPartnerID])
	assert.Equal(t, "2024050110040512345", req.headers[HeaderRequestID])
	assert.Equal(t, ContentTypeJSON, req.headers[HeaderContentType])

	canonical := signing.Canonicalize("POST", req.path, req.body, req.headers[HeaderTimestamp])
	ok, err := signer.Verify(canonical, req.headers[HeaderSignature])
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSendRequest_IdentityFields(t *testing.T) {
	gw := &fakeGateway{status: 200, reply: []byte(`{"errCode":"0"}`)}
	client := newTestClient(t, gw, signing.NewSigner(testKey, &testKey.PublicKey))

	_, err := client.SendRequest(context.Background(), "/x", map[string]interface{}{
		"merchantId": "someone-else",
		"requestId":  "sneaky",
		"note":       "kept",
	}, RequestOptions{RequestID: "retry-1", MerchantTradeNo: "TRADE-42", Timestamp: "2024-01-01T00:00:00.000+07:00"})
	require.NoError(t, err)

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(gw.last().body, &sent))
	assert.Equal(t, "010001", sent["merchantId"])
	assert.Equal(t, "retry-1", sent["requestId"])
	assert.Equal(t, "TRADE-42", sent["merchantTradeNo"])
	assert.Equal(t, "kept", sent["note"])
	assert.Equal(t, "2024-01-01T00:00:00.000+07:00", gw.last().headers[HeaderTimestamp])
}

func TestSendRequest_NonJSONResponseReturnsRaw(t *testing.T) {
	gw := &fakeGateway{status: 502, reply: []byte("Bad Gateway")}
	client := newTestClient(t, gw, signing.NewSigner(testKey, &testKey.PublicKey))

	resp, err := client.SendRequest(context.Background(), "/x", nil, RequestOptions{})
	require.NoError(t, err)
	assert.False(t, resp.Parsed)
	assert.Equal(t, 502, resp.StatusCode)
	assert.Equal(t, "Bad Gateway", resp.Raw)
	assert.False(t, resp.Succeeded())
}

type failingDoer struct{}

func (failingDoer) Do(*fasthttp.Request, *fasthttp.Response) error {
	return errors.New("connection refused")
}

func (failingDoer) DoDeadline(*fasthttp.Request, *fasthttp.Response, time.Time) error {
	return errors.New("connection refused")
}

func TestSendRequest_TransportErrorPropagates(t *testing.T) {
	client, err := NewClient(Config{PartnerID: "010001"}, signing.NewSigner(testKey, nil), WithHTTPDoer(failingDoer{}))
	require.NoError(t, err)

	_, err = client.SendRequest(context.Background(), "/x", nil, RequestOptions{})
	assert.ErrorIs(t, err, apperrors.ErrTransport)
}

func TestSendRequest_NoPrivateKeyFailsFast(t *testing.T) {
	client, err := NewClient(Config{PartnerID: "010001"}, signing.NewSigner(nil, &testKey.PublicKey), WithHTTPDoer(failingDoer{}))
	require.NoError(t, err)

	_, err = client.SendRequest(context.Background(), "/x", nil, RequestOptions{})
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestVerifyCallback(t *testing.T) {
	signer := signing.NewSigner(testKey, &testKey.PublicKey)
	client, err := NewClient(Config{PartnerID: "010001"}, signer)
	require.NoError(t, err)

	path := "/api/gateway/callback"
	rawBody := []byte(`{"merchantId":"010001","merchantTradeNo":"T1","status":"02","amount":"15000.00"}`)
	timestamp := "2024-05-01T10:04:05.678+07:00"
	signature, err := signer.Sign(signing.Canonicalize("POST", path, rawBody, timestamp))
	require.NoError(t, err)

	t.Run("captured body verifies", func(t *testing.T) {
		ok, err := client.VerifyCallback(path, rawBody, signature, timestamp)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("reserialized body does not verify", func(t *testing.T) {
		reordered := []byte(`{"amount":"15000.00","merchantId":"010001","merchantTradeNo":"T1","status":"02"}`)
		ok, err := client.VerifyCallback(path, reordered, signature, timestamp)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("different timestamp does not verify", func(t *testing.T) {
		ok, err := client.VerifyCallback(path, rawBody, signature, "2024-05-01T10:04:06.678+07:00")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("missing headers reject", func(t *testing.T) {
		ok, err := client.VerifyCallback(path, rawBody, "", "")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestVerifyCallback_MissingPublicKeyPropagates(t *testing.T) {
	client, err := NewClient(Config{PartnerID: "010001"}, signing.NewSigner(testKey, nil))
	require.NoError(t, err)

	ok, err := client.VerifyCallback("/cb", []byte("{}"), "c2ln", "t")
	assert.False(t, ok)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestBuildSignedCallbackResponse(t *testing.T) {
	signer := signing.NewSigner(testKey, &testKey.PublicKey)
	client, err := NewClient(Config{PartnerID: "010001", Location: LoadLocation("Asia/Jakarta")}, signer,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func(time.Time) string { return "2024050110040599999" }),
	)
	require.NoError(t, err)

	ack, err := client.BuildSignedCallbackResponse("api/gateway/callback")
	require.NoError(t, err)

	assert.Equal(t, `{"merchantId":"010001","requestId":"2024050110040599999","errCode":"0"}`, string(ack.Body))
	assert.Equal(t, "2024050110040599999", ack.Headers[HeaderRequestID])

	canonical := signing.Canonicalize("POST", "/api/gateway/callback", ack.Body, ack.Headers[HeaderTimestamp])
	ok, err := signer.Verify(canonical, ack.Headers[HeaderSignature])
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreatePayment(t *testing.T) {
	gw := &fakeGateway{status: 200, reply: []byte(`{"errCode":"0","merchantTradeNo":"INV-1"}`)}
	client := newTestClient(t, gw, signing.NewSigner(testKey, &testKey.PublicKey))

	resp, err := client.CreatePayment(context.Background(), PaymentRequest{
		PaymentType:     "QRIS",
		Amount:          decimal.NewFromFloat(15000),
		ProductName:     "Nasi Goreng",
		NotifyURL:       "https://merchant.example/api/gateway/callback",
		MerchantTradeNo: "INV-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-1", resp.MerchantTradeNo)

	req := gw.last()
	assert.Equal(t, "/payment/v2.1/qris/create", req.path)
	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(req.body, &sent))
	assert.Equal(t, "15000.00", sent["amount"])
	assert.Equal(t, "INV-1", sent["merchantTradeNo"])
}

func TestCreatePayment_Validation(t *testing.T) {
	client, err := NewClient(Config{PartnerID: "010001"}, signing.NewSigner(testKey, nil), WithHTTPDoer(failingDoer{}))
	require.NoError(t, err)

	_, err = client.CreatePayment(context.Background(), PaymentRequest{PaymentType: "QRIS", Amount: decimal.Zero})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestQueryPayment_RequiresTradeNo(t *testing.T) {
	client, err := NewClient(Config{PartnerID: "010001"}, signing.NewSigner(testKey, nil), WithHTTPDoer(failingDoer{}))
	require.NoError(t, err)

	_, err = client.QueryPayment(context.Background(), "", "QRIS")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestParseCallbackAndMapStatus(t *testing.T) {
	n, err := ParseCallback([]byte(`{"merchantTradeNo":"T1","status":"02","amount":15000.5}`))
	require.NoError(t, err)
	assert.Equal(t, "T1", n.MerchantTradeNo)
	assert.True(t, n.Amount.Equal(decimal.RequireFromString("15000.5")))
	assert.Equal(t, models.TransactionStatusSuccess, MapStatus(n.Status))
	assert.Equal(t, models.TransactionStatusFailed, MapStatus(StatusCodeFailed))
	assert.Equal(t, models.TransactionStatusPending, MapStatus("01"))

	_, err = ParseCallback([]byte(`{"status":"02"}`))
	assert.ErrorIs(t, err, ErrInvalidCallback)
}

func TestGenerateRequestID(t *testing.T) {
	id := GenerateRequestID(fixedNow, LoadLocation("Asia/Jakarta"))
	require.Len(t, id, 19)
	assert.Equal(t, "20240501100405", id[:14])
	for _, r := range id {
		assert.True(t, r >= '0' && r <= '9')
	}
	assert.GreaterOrEqual(t, id[14:], "11111")
	assert.LessOrEqual(t, id[14:], "99999")
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "2024-05-01T10:04:05.678+07:00", FormatTimestamp(fixedNow, LoadLocation("Asia/Jakarta")))
}

func TestEncodePayload_ReportsDroppedFields(t *testing.T) {
	body, dropped, err := encodePayload([]field{{key: "a", value: 1}}, map[string]interface{}{"a": 2, "b": map[string]int{"y": 1, "x": 2}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":{"x":2,"y":1}}`, string(body))
	assert.Equal(t, []string{"a"}, dropped)
}

func TestParseTimestamp(t *testing.T) {
	loc := time.FixedZone("WIB", 7*60*60)
	want := time.Date(2024, 5, 1, 10, 4, 5, 0, loc)

	for _, s := range []string{"20240501100405", "2024-05-01T10:04:05.000+07:00", "2024-05-01 10:04:05"} {
		got, err := ParseTimestamp(s, loc)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), s)
	}

	_, err := ParseTimestamp("yesterday", loc)
	assert.Error(t, err)

	n := &CallbackNotification{SuccessTime: "20240501100405"}
	require.NotNil(t, n.SettledAt(loc))
	assert.Nil(t, (&CallbackNotification{}).SettledAt(loc))
}
