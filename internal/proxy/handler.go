// Package proxy implements the terminal proxy handler: partner/
// credential resolution, SSRF-safe URL reconstruction, the bounded retry
// loop, response pass-through, and usage recording.
package proxy

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wisbric/relaykey/internal/domain"
	"github.com/wisbric/relaykey/internal/gatewayauth"
	"github.com/wisbric/relaykey/internal/retry"
	"github.com/wisbric/relaykey/internal/telemetry"
	"github.com/wisbric/relaykey/internal/usage"
)

// Handler implements the proxy route: {ANY} /proxy/{partner}/*.
type Handler struct {
	Partners    domain.PartnerStore
	Credentials domain.CredentialStore
	Recorder    *usage.Recorder
	Budget      *retry.Budget
	HTTPClient  *http.Client
	Log         *slog.Logger
}

// outcome is the terminal result of one request: what to record and what to
// send the client.
type outcome struct {
	status        int
	blockedReason *string
	statusCode    *int // upstream status, only set when forwarded
	headers       http.Header
	streamBody    io.ReadCloser // set only on a forwarded (non-blocked) outcome
}

func blocked(status int, reason string) outcome {
	return outcome{status: status, blockedReason: domain.StrPtr(reason)}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc, ok := gatewayauth.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing auth context", http.StatusInternalServerError)
		return
	}

	// 1. Method guard — no UsageEvent, this is a routing-layer decision.
	if r.Method == http.MethodConnect || r.Method == http.MethodTrace {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	partnerName := chi.URLParam(r, "partner")
	tail := chi.URLParam(r, "*")

	oc := h.handle(r, rc, partnerName, tail)
	h.finish(w, r, rc, partnerName, oc)
}

func (h *Handler) finish(w http.ResponseWriter, r *http.Request, rc domain.RequestContext, partnerName string, oc outcome) {
	latencyMS := usage.ClampLatencyMS(time.Since(rc.Start).Milliseconds())

	ev := domain.UsageEvent{
		VirtualKeyID:  rc.VK.ID,
		PartnerName:   partnerName,
		Path:          r.URL.Path,
		Forwarded:     oc.blockedReason == nil,
		BlockedReason: oc.blockedReason,
		StatusCode:    oc.statusCode,
		LatencyMS:     latencyMS,
	}
	h.Recorder.Record(ev)

	outcomeLabel := "forwarded"
	if oc.blockedReason != nil {
		outcomeLabel = *oc.blockedReason
	}
	telemetry.ProxyRequestsTotal.WithLabelValues(partnerName, outcomeLabel).Inc()

	if oc.streamBody != nil {
		defer oc.streamBody.Close()
		for k, vs := range oc.headers {
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}
		w.WriteHeader(oc.status)
		_, _ = io.Copy(w, oc.streamBody)
		return
	}

	http.Error(w, blockMessage(*oc.blockedReason), oc.status)
}

func blockMessage(reason string) string {
	switch reason {
	case domain.BlockUnknownPartner:
		return "unknown partner"
	case domain.BlockDBError:
		return "internal error"
	case domain.BlockSSRFBlocked:
		return "blocked by SSRF guard"
	case domain.BlockMissingUpstreamCredential:
		return "upstream credential not configured"
	case domain.BlockInvalidPartnerBaseURL, domain.BlockInvalidUpstreamPath:
		return "invalid upstream configuration"
	case domain.BlockInvalidCredentialHeaderName, domain.BlockInvalidCredentialHeaderVal:
		return "invalid upstream credential"
	case domain.BlockUpstreamRequestFailed:
		return "upstream request failed"
	default:
		return "request failed"
	}
}

// handle runs the ordered proxy responsibilities and returns the terminal
// outcome. It never writes to the response directly — that's finish's job,
// so usage recording and response writing always happen exactly once.
func (h *Handler) handle(r *http.Request, rc domain.RequestContext, partnerName, tail string) outcome {
	ctx := r.Context()

	// 2. Partner lookup.
	partner, err := h.Partners.GetByName(ctx, partnerName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return blocked(http.StatusNotFound, domain.BlockUnknownPartner)
		}
		h.Log.Error("proxy: partner lookup failed", "error", err, "partner", partnerName)
		return blocked(http.StatusInternalServerError, domain.BlockDBError)
	}

	// 3. Credential lookup.
	cred, err := h.Credentials.LatestForPartner(ctx, partner.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return blocked(http.StatusInternalServerError, domain.BlockMissingUpstreamCredential)
		}
		h.Log.Error("proxy: credential lookup failed", "error", err, "partner", partnerName)
		return blocked(http.StatusInternalServerError, domain.BlockDBError)
	}

	// 4. Base URL parse.
	baseURL, err := url.Parse(partner.BaseURL)
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		h.Log.Error("proxy: invalid partner base_url", "partner", partnerName, "base_url", partner.BaseURL)
		return blocked(http.StatusInternalServerError, domain.BlockInvalidPartnerBaseURL)
	}

	// 5. SSRF guard, pre-join.
	if looksLikeAbsoluteURL(tail) {
		return blocked(http.StatusBadRequest, domain.BlockSSRFBlocked)
	}

	// 6. Build forwarded URL.
	forwardedPath := "/" + tail
	ref, err := url.Parse(forwardedPath)
	if err != nil {
		return blocked(http.StatusBadRequest, domain.BlockInvalidUpstreamPath)
	}
	ref.RawQuery = r.URL.RawQuery
	outboundURL := baseURL.ResolveReference(ref)

	// 7. SSRF guard, post-join.
	if !sameOrigin(outboundURL, baseURL) {
		return blocked(http.StatusBadRequest, domain.BlockSSRFBlocked)
	}

	// 9. Credential injection — validated before the attempt loop; the
	// value must never appear in logs.
	if !isValidHeaderName(cred.HeaderName) {
		return blocked(http.StatusInternalServerError, domain.BlockInvalidCredentialHeaderName)
	}
	if !isValidHeaderValue(cred.HeaderValue) {
		return blocked(http.StatusInternalServerError, domain.BlockInvalidCredentialHeaderVal)
	}

	// Buffer the body up front (bounded to 2 MiB by the router) so each
	// retry attempt can resend it.
	var bodyBytes []byte
	if r.Body != nil {
		bodyBytes, err = io.ReadAll(r.Body)
		if err != nil {
			h.Log.Warn("proxy: reading request body failed", "error", err)
		}
	}

	scrubbed := scrubRequestHeaders(r.Header)

	deadline := rc.Start.Add(time.Duration(rc.Policy.TimeoutMS) * time.Millisecond)
	return h.attemptLoop(ctx, r, rc, partnerName, outboundURL, scrubbed, cred, bodyBytes, deadline)
}

func (h *Handler) attemptLoop(
	ctx context.Context,
	r *http.Request,
	rc domain.RequestContext,
	partnerName string,
	outboundURL *url.URL,
	scrubbedHeaders http.Header,
	cred *domain.UpstreamCredential,
	bodyBytes []byte,
	deadline time.Time,
) outcome {
	profile := retry.DefaultProfile
	idempotent := isIdempotentMethod(r.Method)

	for attemptNum := 1; ; attemptNum++ {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return blocked(http.StatusGatewayTimeout, domain.BlockUpstreamRequestFailed)
		}

		telemetry.ProxyAttemptTotal.WithLabelValues(partnerName, strconv.Itoa(attemptNum)).Inc()

		attemptCtx, cancel := context.WithTimeout(ctx, remaining)
		req, err := http.NewRequestWithContext(attemptCtx, r.Method, outboundURL.String(), bytes.NewReader(bodyBytes))
		if err != nil {
			cancel()
			h.Log.Error("proxy: building outbound request failed", "error", err)
			return blocked(http.StatusInternalServerError, domain.BlockUpstreamRequestFailed)
		}
		req.Header = scrubbedHeaders.Clone()
		req.Header.Set(cred.HeaderName, cred.HeaderValue)

		start := time.Now()
		resp, doErr := h.HTTPClient.Do(req)
		telemetry.UpstreamRequestDuration.WithLabelValues(partnerName).Observe(time.Since(start).Seconds())

		if doErr != nil {
			cancel()
			retryable := retry.TransportRetryable(doErr)
			if retryable && idempotent && attemptNum < retry.MaxAttempts && h.budgetAllows(ctx, partnerName, rc.VK.ID.String()) {
				h.sleepBackoff(ctx, attemptNum)
				continue
			}
			h.Log.Warn("proxy: upstream request failed", "partner", partnerName, "error", doErr)
			return blocked(http.StatusBadGateway, domain.BlockUpstreamRequestFailed)
		}

		status := resp.StatusCode
		retryableStatus := retry.StatusRetryable(status) && profile.PermitsStatus(status)
		if retryableStatus && idempotent && attemptNum < retry.MaxAttempts && h.budgetAllows(ctx, partnerName, rc.VK.ID.String()) {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			cancel()
			h.sleepBackoff(ctx, attemptNum)
			continue
		}

		// Terminal: pass this response through. cancel() is deferred until
		// the body has been streamed by finish, via streamBody's Close.
		return outcome{
			status:     status,
			statusCode: domain.IntPtr(status),
			headers:    scrubResponseHeaders(resp.Header),
			streamBody: &cancelOnCloseBody{ReadCloser: resp.Body, cancel: cancel},
		}
	}
}

func (h *Handler) budgetAllows(ctx context.Context, partnerName, vkID string) bool {
	allowed, deniedScope, _ := h.Budget.Allow(ctx, partnerName, vkID)
	if !allowed {
		telemetry.RetryBudgetDeniedTotal.WithLabelValues(deniedScope).Inc()
	}
	return allowed
}

func (h *Handler) sleepBackoff(ctx context.Context, attemptNum int) {
	d := retry.Backoff(attemptNum)
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// cancelOnCloseBody cancels the attempt's context when the response body is
// closed, once streaming to the client has finished.
type cancelOnCloseBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnCloseBody) Close() error {
	defer b.cancel()
	return b.ReadCloser.Close()
}
