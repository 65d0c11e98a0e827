// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// FailureCategory is the closed set of reasons a language assist call can
// fail. The string value is the machine-readable code.
type FailureCategory string

const (
	FailureNone              FailureCategory = ""
	FailureBadRequest        FailureCategory = "bad-request"
	FailureUnauthorized      FailureCategory = "unauthorized"
	FailureRateLimited       FailureCategory = "rate-limited"
	FailureModelNotFound     FailureCategory = "model-not-found"
	FailureServerError       FailureCategory = "server-error"
	FailureNetworkError      FailureCategory = "network-error"
	FailureMalformedResponse FailureCategory = "malformed-response"
	FailureTimeout           FailureCategory = "timeout"
)

var remediations = map[FailureCategory]string{
	FailureBadRequest:        "The provider rejected the request; check the model name and request settings.",
	FailureUnauthorized:      "Check the API key configured for the language assist service.",
	FailureRateLimited:       "The provider is rate limiting requests; wait a moment or lower the query rate.",
	FailureModelNotFound:     "The configured model is not available on the provider; choose an installed model.",
	FailureServerError:       "The provider returned a server error; try again later.",
	FailureNetworkError:      "Could not reach the provider; check the host URL and network connection.",
	FailureMalformedResponse: "The model answered in an unexpected format; try a more capable model.",
	FailureTimeout:           "The provider did not answer in time; raise the AI timeout or use a faster model.",
}

// Remediation returns a short hint for a human. It is forwarded verbatim.
func (c FailureCategory) Remediation() string {
	return remediations[c]
}

// Retryable reports whether one automatic retry is worthwhile.
func (c FailureCategory) Retryable() bool {
	switch c {
	case FailureRateLimited, FailureServerError, FailureNetworkError:
		return true
	}
	return false
}

// Failure is a categorized language assist error.
type Failure struct {
	Category FailureCategory
	Err      error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("language assist failure: %s", f.Category)
	}
	return fmt.Sprintf("language assist failure (%s): %v", f.Category, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure categorizes err and wraps it. A nil err yields nil.
func NewFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Category: Classify(err), Err: err}
}

// Classify maps any error to a FailureCategory. It understands *Failure,
// langchaingo's standardized *llms.Error codes, context errors, network
// errors and JSON decoding errors; unrecognized errors are server errors.
func Classify(err error) FailureCategory {
	if err == nil {
		return FailureNone
	}

	var f *Failure
	if errors.As(err, &f) {
		return f.Category
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return FailureTimeout
	}
	if errors.Is(err, ErrMalformedResponse) {
		return FailureMalformedResponse
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return FailureMalformedResponse
	}

	var llmErr *llms.Error
	if !errors.As(err, &llmErr) {
		if mapped := llms.NewErrorMapper("assist").Map(err); mapped != nil {
			errors.As(mapped, &llmErr)
		}
	}
	if llmErr != nil {
		if c, ok := fromLLMCode(llmErr.Code); ok {
			return c
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return FailureTimeout
		}
		return FailureNetworkError
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"connection refused", "no such host", "connection reset", "eof", "dial tcp"} {
		if strings.Contains(msg, pattern) {
			return FailureNetworkError
		}
	}
	return FailureServerError
}

func fromLLMCode(code llms.ErrorCode) (FailureCategory, bool) {
	switch code {
	case llms.ErrCodeAuthentication:
		return FailureUnauthorized, true
	case llms.ErrCodeRateLimit, llms.ErrCodeQuotaExceeded:
		return FailureRateLimited, true
	case llms.ErrCodeInvalidRequest, llms.ErrCodeTokenLimit, llms.ErrCodeContentFilter, llms.ErrCodeNotImplemented:
		return FailureBadRequest, true
	case llms.ErrCodeResourceNotFound:
		return FailureModelNotFound, true
	case llms.ErrCodeTimeout, llms.ErrCodeCanceled:
		return FailureTimeout, true
	case llms.ErrCodeProviderUnavailable:
		return FailureServerError, true
	}
	return FailureNone, false
}
