package cadence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/morezero/cadence-client/pkg/messages"
)

const domainLogPrefix = "cadence:domain"

// RegisterDomain creates a domain on the cluster.
func (c *Client) RegisterDomain(ctx context.Context, input *RegisterDomainInput) error {
	if input == nil || input.Name == "" {
		return fmt.Errorf("%s - domain name is required: %w", domainLogPrefix, ErrInvalidArgument)
	}
	if input.RetentionDays < 0 {
		return fmt.Errorf("%s - retention days %d: %w", domainLogPrefix, input.RetentionDays, ErrInvalidArgument)
	}
	slog.Info(fmt.Sprintf("%s - register name=%s retention=%d", domainLogPrefix, input.Name, input.RetentionDays))

	req := messages.NewDomainRegisterRequest()
	req.SetName(input.Name)
	req.SetDescription(input.Description)
	req.SetOwnerEmail(input.OwnerEmail)
	req.SetEmitMetrics(input.EmitMetrics)
	req.SetRetentionDays(input.RetentionDays)

	_, err := c.call(ctx, "domain.register", req)
	return err
}

// DescribeDomain returns the cluster's view of a domain.
func (c *Client) DescribeDomain(ctx context.Context, name string) (*DomainDescription, error) {
	if name == "" {
		return nil, fmt.Errorf("%s - domain name is required: %w", domainLogPrefix, ErrInvalidArgument)
	}

	req := messages.NewDomainDescribeRequest()
	req.SetName(name)
	reply, err := c.call(ctx, "domain.describe", req)
	if err != nil {
		return nil, err
	}
	r, err := replyAs[*messages.DomainDescribeReply](reply)
	if err != nil {
		return nil, err
	}

	return &DomainDescription{
		Name:          r.DomainInfoName(),
		Description:   r.DomainInfoDescription(),
		Status:        r.DomainInfoStatus(),
		OwnerEmail:    r.DomainInfoOwnerEmail(),
		RetentionDays: r.ConfigurationRetentionDays(),
		EmitMetrics:   r.ConfigurationEmitMetrics(),
	}, nil
}

// UpdateDomain replaces a domain's description, owner and configuration.
func (c *Client) UpdateDomain(ctx context.Context, input *UpdateDomainInput) error {
	if input == nil || input.Name == "" {
		return fmt.Errorf("%s - domain name is required: %w", domainLogPrefix, ErrInvalidArgument)
	}
	if input.RetentionDays < 0 {
		return fmt.Errorf("%s - retention days %d: %w", domainLogPrefix, input.RetentionDays, ErrInvalidArgument)
	}
	slog.Info(fmt.Sprintf("%s - update name=%s", domainLogPrefix, input.Name))

	req := messages.NewDomainUpdateRequest()
	req.SetName(input.Name)
	req.SetUpdatedInfoDescription(input.Description)
	req.SetUpdatedInfoOwnerEmail(input.OwnerEmail)
	req.SetConfigurationEmitMetrics(input.EmitMetrics)
	req.SetConfigurationRetentionDays(input.RetentionDays)

	_, err := c.call(ctx, "domain.update", req)
	return err
}
