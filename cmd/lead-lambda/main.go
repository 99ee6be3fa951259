package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/wolfman30/lead-intake/cmd/mainconfig"
	"github.com/wolfman30/lead-intake/internal/app/bootstrap"
	appconfig "github.com/wolfman30/lead-intake/internal/config"
	httpmiddleware "github.com/wolfman30/lead-intake/internal/http/middleware"
	"github.com/wolfman30/lead-intake/internal/leads"
	"github.com/wolfman30/lead-intake/pkg/logging"
)

// handler adapts API Gateway (and Netlify Functions) proxy events to the
// intake pipeline.
type handler struct {
	intake *leads.Intake
	cors   httpmiddleware.CORSPolicy
	logger *logging.Logger
}

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	provider := bootstrap.NewLeadsProvider(cfg, mainconfig.AWSLoader(cfg), logger)
	intake := leads.NewIntake(leads.IntakeConfig{
		Provider: provider,
		Policy: leads.Policy{
			RequireName:           cfg.RequireName,
			RequireContactChannel: cfg.RequireContactChannel,
		},
		MinElapsed:   cfg.MinElapsed,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Notifier:     bootstrap.BuildNotifier(context.Background(), cfg, mainconfig.AWSLoader(cfg), logger),
		Logger:       logger,
	})

	h := &handler{
		intake: intake,
		cors:   httpmiddleware.NewCORSPolicy(cfg.AllowedOrigins()),
		logger: logger,
	}
	lambda.Start(h.handle)
}

func (h *handler) handle(ctx context.Context, evt events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	headers := h.cors.Headers(headerValue(evt.Headers, "origin"))

	body, err := decodeBody(evt)
	if err != nil {
		h.logger.Warn("failed to decode base64 body", "error", err)
		headers["Content-Type"] = "application/json"
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusBadRequest,
			Headers:    headers,
			Body:       errorJSON(leads.ErrInvalidJSON),
		}, nil
	}

	res := h.intake.Process(ctx, leads.Request{
		Method: strings.ToUpper(strings.TrimSpace(evt.HTTPMethod)),
		Body:   strings.NewReader(body),
	})
	for k, v := range res.Headers() {
		headers[k] = v
	}
	return events.APIGatewayProxyResponse{
		StatusCode: res.Status,
		Headers:    headers,
		Body:       string(res.Body()),
	}, nil
}

func decodeBody(evt events.APIGatewayProxyRequest) (string, error) {
	if !evt.IsBase64Encoded {
		return evt.Body, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(evt.Body)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func errorJSON(err error) string {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(data)
}

func headerValue(headers map[string]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
