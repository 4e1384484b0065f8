package mailer

import (
	"bytes"
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/dalemusser/contactform/internal/apperr"
	"github.com/dalemusser/contactform/internal/contact"
)

var errSendingDisabled = errors.New("account sending is disabled")

// sesAPI is the slice of the SES v2 client the transport uses.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
	GetAccount(ctx context.Context, in *sesv2.GetAccountInput, optFns ...func(*sesv2.Options)) (*sesv2.GetAccountOutput, error)
}

// SES sends the rendered MIME message through Amazon SES as raw content,
// so headers match the other transports exactly.
type SES struct {
	api sesAPI
}

// NewSES builds an SES transport for region. Empty keys fall back to the
// default AWS credential chain.
func NewSES(ctx context.Context, region, accessKey, secretKey string) (*SES, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Config, "loading AWS config")
	}
	return &SES{api: sesv2.NewFromConfig(awsCfg)}, nil
}

// Name implements Transport.
func (s *SES) Name() string { return "ses" }

// Send implements Transport.
func (s *SES) Send(ctx context.Context, msg *contact.OutboundMessage) error {
	m, err := buildMsg(msg)
	if err != nil {
		return err
	}

	var raw bytes.Buffer
	if _, err := m.WriteTo(&raw); err != nil {
		return apperr.Wrap(err, apperr.Compose, "rendering message")
	}

	in := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From.Address),
		Destination:      &types.Destination{ToAddresses: []string{msg.To.Address}},
		Content:          &types.EmailContent{Raw: &types.RawMessage{Data: raw.Bytes()}},
	}
	if msg.ReplyTo != nil {
		in.ReplyToAddresses = []string{msg.ReplyTo.Address}
	}

	if _, err := s.api.SendEmail(ctx, in); err != nil {
		return sendError(s.Name(), err)
	}
	return nil
}

// Check confirms the account is reachable and allowed to send.
func (s *SES) Check(ctx context.Context) error {
	out, err := s.api.GetAccount(ctx, &sesv2.GetAccountInput{})
	if err != nil {
		return sendError(s.Name(), err)
	}
	if !out.SendingEnabled {
		return sendError(s.Name(), errSendingDisabled)
	}
	return nil
}
