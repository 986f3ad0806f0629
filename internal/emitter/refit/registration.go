package refit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/refitgen/internal/generator"
	"github.com/mark3labs/refitgen/internal/settings"
)

var (
	registrationUsings = []string{"System", "Microsoft.Extensions.DependencyInjection"}
	retryUsings        = []string{"System.Net.Http", "Polly", "Polly.Contrib.WaitAndRetry"}
)

// statement is one fluent call chain: a receiver followed by member calls.
// A call may span several lines; continuation lines are indented relative
// to the call.
type statement struct {
	receiver string
	calls    [][]string
}

func (s statement) lines() []string {
	out := []string{s.receiver}
	for _, call := range s.calls {
		for _, l := range call {
			out = append(out, indentUnit+l)
		}
	}
	out[len(out)-1] += ";"
	return out
}

// formatStatements joins complete statements with one blank line. The
// separator only ever appears between two statements.
func formatStatements(stmts []statement) string {
	blocks := make([]string, 0, len(stmts))
	for _, s := range stmts {
		blocks = append(blocks, strings.Join(s.lines(), "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// registrationStatements builds one statement per interface followed by the
// closing return.
func registrationStatements(names []string, r *settings.RegistrationSettings) []statement {
	stmts := make([]statement, 0, len(names)+1)
	for _, name := range names {
		s := statement{receiver: "services"}
		s.calls = append(s.calls,
			[]string{fmt.Sprintf(".AddRefitClient<%s>()", name)},
			[]string{fmt.Sprintf(".ConfigureHttpClient(c => c.BaseAddress = new Uri(%s))", generator.Quote(r.BaseURL))},
		)
		for _, h := range r.MessageHandlers {
			s.calls = append(s.calls, []string{fmt.Sprintf(".AddHttpMessageHandler<%s>()", h)})
		}
		if r.UseRetryPolicy {
			s.calls = append(s.calls, retryPolicy(r.FirstBackoffSeconds, r.MaxRetryCount))
		}
		stmts = append(stmts, s)
	}
	return append(stmts, statement{receiver: "return services"})
}

// retryPolicy retries network failures and 5xx responses only; 4xx client
// errors, 408 included, are never retried.
func retryPolicy(firstBackoff float64, maxRetries int) []string {
	return []string{
		".AddPolicyHandler(",
		indentUnit + "Policy<HttpResponseMessage>",
		indentUnit + indentUnit + ".Handle<HttpRequestException>()",
		indentUnit + indentUnit + ".OrResult(response => (int)response.StatusCode >= 500)",
		indentUnit + indentUnit + ".WaitAndRetryAsync(",
		strings.Repeat(indentUnit, 3) + "Backoff.DecorrelatedJitterBackoffV2(",
		strings.Repeat(indentUnit, 4) + fmt.Sprintf("TimeSpan.FromSeconds(%s),", strconv.FormatFloat(firstBackoff, 'f', -1, 64)),
		strings.Repeat(indentUnit, 4) + strconv.Itoa(maxRetries) + ")))",
	}
}

// EmitRegistration renders the IServiceCollection extension registering
// every interface in names, in order. It returns "" when registration is
// disabled or there is nothing to register.
func EmitRegistration(names []string, namespace string, r *settings.RegistrationSettings) string {
	if r == nil || len(names) == 0 {
		return ""
	}
	use := registrationUsings
	if r.UseRetryPolicy {
		use = append(append([]string(nil), registrationUsings...), retryUsings...)
	}
	method := r.ExtensionMethodName
	if method == "" {
		method = settings.DefaultExtensionMethodName
	}

	w := newWriter()
	w.block("namespace "+namespace, func() {
		writeUsings(w, use)
		w.blank()
		w.block("public static partial class IServiceCollectionExtensions", func() {
			w.block(fmt.Sprintf("public static IServiceCollection %s(this IServiceCollection services)", method), func() {
				for _, l := range strings.Split(formatStatements(registrationStatements(names, r)), "\n") {
					w.line(l)
				}
			})
		})
	})
	return w.String()
}
