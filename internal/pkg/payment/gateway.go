package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/qs3c/photoshoot_server/config"
)

const (
	jazzCashSuccessCode  = "000"
	jazzCashSuccessState = "1"
	easyPaisaSuccessCode = "000"

	// pp_Amount 以 paisa 为单位
	paisaPerRupee = 100
)

// GatewayVerifier 调用 JazzCash / EasyPaisa 接口核验交易
type GatewayVerifier struct {
	httpClient *http.Client
	jazzCash   config.JazzCashConfig
	easyPaisa  config.EasyPaisaConfig
	logger     *zap.Logger
}

func NewGatewayVerifier(cfg *config.PaymentConfig, logger *zap.Logger) *GatewayVerifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GatewayVerifier{
		httpClient: &http.Client{Timeout: timeout},
		jazzCash:   cfg.JazzCash,
		easyPaisa:  cfg.EasyPaisa,
		logger:     logger,
	}
}

func (v *GatewayVerifier) Verify(ctx context.Context, req *VerifyRequest) (*Verification, error) {
	switch req.Gateway {
	case GatewayJazzCash:
		return v.verifyJazzCash(ctx, req), nil
	case GatewayEasyPaisa:
		return v.verifyEasyPaisa(ctx, req), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGateway, req.Gateway)
	}
}

type jazzCashResponse struct {
	ResponseCode    string `json:"pp_ResponseCode"`
	ResponseMessage string `json:"pp_ResponseMessage"`
	Status          string `json:"pp_status"`
	StatusMessage   string `json:"pp_response_message"`
	Amount          string `json:"pp_Amount"`
}

func (v *GatewayVerifier) verifyJazzCash(ctx context.Context, req *VerifyRequest) *Verification {
	fields := map[string]string{
		"pp_MerchantID": v.jazzCash.MerchantID,
		"pp_Password":   v.jazzCash.Password,
		"pp_TxnRefNo":   req.TransactionID,
	}
	fields["pp_SecureHash"] = SecureHash(v.jazzCash.IntegritySalt, fields)

	var resp jazzCashResponse
	if failed := v.post(ctx, string(GatewayJazzCash), v.jazzCash.VerifyURL, fields, &resp); failed != nil {
		return failed
	}

	if resp.ResponseCode != jazzCashSuccessCode && resp.Status != jazzCashSuccessState {
		msg := firstNonEmpty(resp.ResponseMessage, resp.StatusMessage, "Payment verification failed")
		v.logger.Warn("jazzcash payment rejected",
			zap.String("transaction_id", req.TransactionID),
			zap.String("response_code", resp.ResponseCode),
			zap.String("message", msg))
		return &Verification{Verified: false, Message: msg}
	}

	amount := req.ClaimedAmount
	if resp.Amount != "" {
		if paisa, err := decimal.NewFromString(resp.Amount); err == nil && paisa.IsPositive() {
			amount = paisa.Div(decimal.NewFromInt(paisaPerRupee))
		}
	}

	v.logger.Info("jazzcash payment verified", zap.String("transaction_id", req.TransactionID))
	return &Verification{Verified: true, CreditedAmount: amount, Message: "Payment verified successfully"}
}

type easyPaisaResponse struct {
	ResponseCode      string `json:"responseCode"`
	ResponseMessage   string `json:"responseMessage"`
	TransactionAmount string `json:"transactionAmount"`
}

func (v *GatewayVerifier) verifyEasyPaisa(ctx context.Context, req *VerifyRequest) *Verification {
	fields := map[string]string{
		"merchantId":    v.easyPaisa.MerchantID,
		"password":      v.easyPaisa.Password,
		"transactionId": req.TransactionID,
	}

	var resp easyPaisaResponse
	if failed := v.post(ctx, string(GatewayEasyPaisa), v.easyPaisa.VerifyURL, fields, &resp); failed != nil {
		return failed
	}

	if resp.ResponseCode != easyPaisaSuccessCode {
		msg := firstNonEmpty(resp.ResponseMessage, "Payment verification failed")
		v.logger.Warn("easypaisa payment rejected",
			zap.String("transaction_id", req.TransactionID),
			zap.String("response_code", resp.ResponseCode),
			zap.String("message", msg))
		return &Verification{Verified: false, Message: msg}
	}

	amount := req.ClaimedAmount
	if resp.TransactionAmount != "" {
		if reported, err := decimal.NewFromString(resp.TransactionAmount); err == nil && reported.IsPositive() {
			amount = reported
		}
	}

	v.logger.Info("easypaisa payment verified", zap.String("transaction_id", req.TransactionID))
	return &Verification{Verified: true, CreditedAmount: amount, Message: "Payment verified successfully"}
}

// post 发送核验请求，失败时直接返回 Verified=false 的结果
func (v *GatewayVerifier) post(ctx context.Context, gateway, url string, payload interface{}, out interface{}) *Verification {
	body, err := json.Marshal(payload)
	if err != nil {
		return &Verification{Message: fmt.Sprintf("Verification error: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &Verification{Message: fmt.Sprintf("Verification error: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(httpReq)
	if err != nil {
		v.logger.Error("payment gateway request failed", zap.String("gateway", gateway), zap.Error(err))
		return &Verification{Message: fmt.Sprintf("Verification error: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		v.logger.Error("payment gateway returned error status", zap.String("gateway", gateway), zap.Int("status", resp.StatusCode))
		return &Verification{Message: fmt.Sprintf("API error: %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &Verification{Message: fmt.Sprintf("Verification error: %v", err)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		v.logger.Error("payment gateway returned malformed body", zap.String("gateway", gateway), zap.Error(err))
		return &Verification{Message: "Verification error: malformed gateway response"}
	}

	return nil
}

// SecureHash JazzCash 请求签名：salt 与按键名排序的非空字段值以 & 拼接后做 HMAC-SHA256
func SecureHash(salt string, fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k, val := range fields {
		if k == "pp_SecureHash" || val == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+1)
	parts = append(parts, salt)
	for _, k := range keys {
		parts = append(parts, fields[k])
	}

	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(strings.Join(parts, "&")))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

func firstNonEmpty(values ...string) string {
	for _, s := range values {
		if s != "" {
			return s
		}
	}
	return ""
}
