package cameraapi

import (
	"context"
	"fmt"
	"time"

	fastshot "github.com/opus-domini/fast-shot"
	"github.com/vacs-platform/streamview/internal/configs"
	custerror "github.com/vacs-platform/streamview/internal/error"
	custhttp "github.com/vacs-platform/streamview/internal/http"
	"github.com/vacs-platform/streamview/internal/secrets"
	"github.com/vacs-platform/streamview/models/rest"
)

// Client reads and writes camera records on the platform's configuration API.
// Authentication is a black box here: the bearer token is injected as given.
type Client interface {
	GetCamera(ctx context.Context, cameraId string) (*rest.CameraConfig, error)
	UpdateRecognition(ctx context.Context, cameraId string, recognition *rest.RecognitionConfig) error
}

type client struct {
	restClient fastshot.ClientHttpMethods
	basePath   string
	secretKey  []byte
}

func NewClient(c *configs.CameraApiConfigs, s *configs.SecretsConfigs) Client {
	builder := fastshot.NewClient(c.BaseUrl)
	clientConfigs := builder.Config()
	clientConfigs.SetTimeout(10 * time.Second)
	clientConfigs.SetFollowRedirects(true)
	clientConfigs.SetCustomTransport(custhttp.NewLoggingTransport())
	if c.Token != "" {
		builder.Auth().BearerToken(c.Token)
	}
	var secretKey []byte
	if s != nil && s.Key != "" {
		secretKey = []byte(s.Key)
	}
	return &client{
		restClient: builder.Build(),
		basePath:   "/api/cameras",
		secretKey:  secretKey,
	}
}

func (c *client) GetCamera(ctx context.Context, cameraId string) (*rest.CameraConfig, error) {
	response, err := c.restClient.GET(fmt.Sprintf("%s/%s", c.basePath, cameraId)).
		Context().Set(ctx).
		Retry().Set(2, 5*time.Second).
		Send()
	if err != nil {
		return nil, err
	}
	if err := c.handleError(&response); err != nil {
		return nil, err
	}

	var camera rest.CameraConfig
	if err := custhttp.JSONResponse(&response, &camera); err != nil {
		return nil, err
	}

	// the API serves the stream token sealed; hand callers the usable form
	if camera.StreamToken != "" && len(c.secretKey) > 0 {
		token, err := secrets.Decrypt(c.secretKey, camera.StreamToken)
		if err != nil {
			return nil, err
		}
		camera.StreamToken = string(token)
	}
	return &camera, nil
}

func (c *client) UpdateRecognition(ctx context.Context, cameraId string, recognition *rest.RecognitionConfig) error {
	response, err := c.restClient.PUT(fmt.Sprintf("%s/%s/recognition", c.basePath, cameraId)).
		Context().Set(ctx).
		Body().AsJSON(&rest.UpdateRecognitionRequest{
			Recognition: *recognition,
		}).
		Retry().Set(2, 5*time.Second).
		Send()
	if err != nil {
		return err
	}
	return c.handleError(&response)
}

func (c *client) handleError(resp *fastshot.Response) error {
	if resp.Is2xxSuccessful() {
		return nil
	}
	switch resp.StatusCode() {
	case 400:
		return custerror.ErrorInvalidArgument
	case 401, 403:
		return custerror.ErrorPermissionDenied
	case 404:
		return custerror.ErrorNotFound
	default:
		return custerror.FormatInternalError("camera API returned status %d", resp.StatusCode())
	}
}
