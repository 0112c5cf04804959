package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// EmailsService covers the ad hoc send endpoints.
type EmailsService struct {
	c *Client
}

// SendBulk sends a template to every address in in.Recipients.
func (s *EmailsService) SendBulk(ctx context.Context, in BulkSendInput) (*BulkSendResult, error) {
	if in.CustomVariables == nil {
		in.CustomVariables = map[string]string{}
	}
	body, err := s.c.doJSON(ctx, http.MethodPost, "/emails/send-bulk", nil, in)
	if err != nil {
		return nil, err
	}
	var result BulkSendResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding bulk send result: %w", err)
	}
	return &result, nil
}

// SendSingle sends a template to one address.
func (s *EmailsService) SendSingle(ctx context.Context, in SingleSendInput) (*SendResult, error) {
	if in.CustomVariables == nil {
		in.CustomVariables = map[string]string{}
	}
	body, err := s.c.doJSON(ctx, http.MethodPost, "/emails/single", nil, in)
	if err != nil {
		return nil, err
	}
	var result SendResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding send result: %w", err)
	}
	return &result, nil
}
