package refit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/refitgen/internal/settings"
)

const scenarioA = `namespace GeneratedCode
{
    using System;
    using Microsoft.Extensions.DependencyInjection;
    using System.Net.Http;
    using Polly;
    using Polly.Contrib.WaitAndRetry;

    public static partial class IServiceCollectionExtensions
    {
        public static IServiceCollection ConfigureRefitClients(this IServiceCollection services)
        {
            services
                .AddRefitClient<IPetApi>()
                .ConfigureHttpClient(c => c.BaseAddress = new Uri("https://api.example.com"))
                .AddHttpMessageHandler<LoggingHandler>()
                .AddPolicyHandler(
                    Policy<HttpResponseMessage>
                        .Handle<HttpRequestException>()
                        .OrResult(response => (int)response.StatusCode >= 500)
                        .WaitAndRetryAsync(
                            Backoff.DecorrelatedJitterBackoffV2(
                                TimeSpan.FromSeconds(1),
                                3)));

            return services;
        }
    }
}
`

func TestEmitRegistration_ScenarioA(t *testing.T) {
	t.Parallel()

	r := &settings.RegistrationSettings{
		BaseURL:             "https://api.example.com",
		MessageHandlers:     []string{"LoggingHandler"},
		UseRetryPolicy:      true,
		FirstBackoffSeconds: 1,
		MaxRetryCount:       3,
	}
	assert.Equal(t, scenarioA, EmitRegistration([]string{"IPetApi"}, "GeneratedCode", r))
}

func TestEmitRegistration_NoOp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", EmitRegistration([]string{"IPetApi"}, "GeneratedCode", nil))
	assert.Equal(t, "", EmitRegistration(nil, "GeneratedCode", &settings.RegistrationSettings{BaseURL: "https://x"}))
	assert.Equal(t, "", EmitRegistration([]string{}, "GeneratedCode", &settings.RegistrationSettings{BaseURL: "https://x"}))
}

func TestEmitRegistration_WellFormed(t *testing.T) {
	t.Parallel()

	for n := 1; n <= 4; n++ {
		names := make([]string, n)
		for i := range names {
			names[i] = "IApi" + string(rune('A'+i))
		}
		out := EmitRegistration(names, "Acme.Clients", &settings.RegistrationSettings{
			BaseURL:             "https://api.example.com",
			MessageHandlers:     []string{"AuthHandler", "LoggingHandler"},
			ExtensionMethodName: "AddAcmeClients",
		})

		assert.Equal(t, n, strings.Count(out, "            services\n"), "n=%d", n)
		assert.Equal(t, n, strings.Count(out, `c.BaseAddress = new Uri("https://api.example.com"))`), "n=%d", n)
		assert.Equal(t, 2*n, strings.Count(out, ".AddHttpMessageHandler<"))
		assert.Equal(t, 1, strings.Count(out, "return services;"))
		assert.NotContains(t, out, "\n\n\n")
		assert.NotContains(t, out, ";;")
		assert.Contains(t, out, "IServiceCollection AddAcmeClients(this IServiceCollection services)")
		assert.Contains(t, out, ".AddHttpMessageHandler<LoggingHandler>();\n\n            return services;\n")
		assert.NotContains(t, out, "using Polly;")

		// handlers keep their configured order inside each statement
		first := strings.Index(out, "AuthHandler")
		second := strings.Index(out, "LoggingHandler")
		require.Greater(t, second, first)

		for i, name := range names {
			idx := strings.Index(out, "AddRefitClient<"+name+">")
			require.GreaterOrEqual(t, idx, 0, name)
			if i > 0 {
				assert.Greater(t, idx, strings.Index(out, "AddRefitClient<"+names[i-1]+">"))
			}
		}
	}
}

func TestEmitRegistration_Deterministic(t *testing.T) {
	t.Parallel()

	r := &settings.RegistrationSettings{BaseURL: "https://a", UseRetryPolicy: true, FirstBackoffSeconds: 0.5, MaxRetryCount: 6}
	names := []string{"IPetApi", "IStoreApi"}
	first := EmitRegistration(names, "Ns", r)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, EmitRegistration(names, "Ns", r))
	}
	assert.Contains(t, first, "TimeSpan.FromSeconds(0.5),")
}

func TestEmitRegistration_EscapesBaseURL(t *testing.T) {
	t.Parallel()

	out := EmitRegistration([]string{"IApi"}, "Ns", &settings.RegistrationSettings{BaseURL: `https://x/"q"\`})
	assert.Contains(t, out, `new Uri("https://x/\"q\"\\")`)
}

func TestFormatStatements_NoTrailingSeparator(t *testing.T) {
	t.Parallel()

	got := formatStatements([]statement{
		{receiver: "a", calls: [][]string{{".B()"}}},
		{receiver: "return a"},
	})
	assert.Equal(t, "a\n    .B();\n\nreturn a;", got)
	assert.Equal(t, "", formatStatements(nil))
}
