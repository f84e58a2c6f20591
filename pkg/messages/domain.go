package messages

import "fmt"

// DomainStatus is the lifecycle state the cluster reports for a domain.
type DomainStatus string

const (
	DomainRegistered DomainStatus = "REGISTERED"
	DomainDeprecated DomainStatus = "DEPRECATED"
	DomainDeleted    DomainStatus = "DELETED"
)

// ParseDomainStatus accepts the wire names above.
func ParseDomainStatus(s string) (DomainStatus, error) {
	switch st := DomainStatus(s); st {
	case DomainRegistered, DomainDeprecated, DomainDeleted:
		return st, nil
	}
	return "", fmt.Errorf("messages: unknown domain status %q", s)
}

type DomainRegisterRequest struct{ ProxyRequest }

func NewDomainRegisterRequest() *DomainRegisterRequest {
	return &DomainRegisterRequest{newProxyRequest(TypeDomainRegisterRequest, TypeDomainRegisterReply)}
}

func (m *DomainRegisterRequest) Name() string            { return m.str("Name") }
func (m *DomainRegisterRequest) SetName(v string)        { m.setStr("Name", v) }
func (m *DomainRegisterRequest) Description() string     { return m.str("Description") }
func (m *DomainRegisterRequest) SetDescription(v string) { m.setStr("Description", v) }
func (m *DomainRegisterRequest) OwnerEmail() string      { return m.str("OwnerEmail") }
func (m *DomainRegisterRequest) SetOwnerEmail(v string)  { m.setStr("OwnerEmail", v) }
func (m *DomainRegisterRequest) EmitMetrics() bool       { return m.bool("EmitMetrics") }
func (m *DomainRegisterRequest) SetEmitMetrics(v bool)   { m.Properties().SetBool("EmitMetrics", v) }
func (m *DomainRegisterRequest) RetentionDays() int32    { return m.int32("RetentionDays") }
func (m *DomainRegisterRequest) SetRetentionDays(v int32) {
	m.Properties().SetInt32("RetentionDays", v)
}

type DomainRegisterReply struct{ ProxyReply }

func NewDomainRegisterReply() *DomainRegisterReply {
	return &DomainRegisterReply{newProxyReply(TypeDomainRegisterReply)}
}

type DomainDescribeRequest struct{ ProxyRequest }

func NewDomainDescribeRequest() *DomainDescribeRequest {
	return &DomainDescribeRequest{newProxyRequest(TypeDomainDescribeRequest, TypeDomainDescribeReply)}
}

func (m *DomainDescribeRequest) Name() string     { return m.str("Name") }
func (m *DomainDescribeRequest) SetName(v string) { m.setStr("Name", v) }

// DomainDescribeReply flattens the cluster's domain info and configuration
// into prefixed properties.
type DomainDescribeReply struct{ ProxyReply }

func NewDomainDescribeReply() *DomainDescribeReply {
	return &DomainDescribeReply{newProxyReply(TypeDomainDescribeReply)}
}

func (m *DomainDescribeReply) DomainInfoName() string     { return m.str("DomainInfoName") }
func (m *DomainDescribeReply) SetDomainInfoName(v string) { m.setStr("DomainInfoName", v) }
func (m *DomainDescribeReply) DomainInfoDescription() string {
	return m.str("DomainInfoDescription")
}
func (m *DomainDescribeReply) SetDomainInfoDescription(v string) {
	m.setStr("DomainInfoDescription", v)
}

// DomainInfoStatus returns the reported status, or "" when absent or unrecognized.
func (m *DomainDescribeReply) DomainInfoStatus() DomainStatus {
	st, err := ParseDomainStatus(m.str("DomainInfoStatus"))
	if err != nil {
		return ""
	}
	return st
}
func (m *DomainDescribeReply) SetDomainInfoStatus(v DomainStatus) {
	m.setStr("DomainInfoStatus", string(v))
}
func (m *DomainDescribeReply) DomainInfoOwnerEmail() string { return m.str("DomainInfoOwnerEmail") }
func (m *DomainDescribeReply) SetDomainInfoOwnerEmail(v string) {
	m.setStr("DomainInfoOwnerEmail", v)
}
func (m *DomainDescribeReply) ConfigurationRetentionDays() int32 {
	return m.int32("ConfigurationRetentionDays")
}
func (m *DomainDescribeReply) SetConfigurationRetentionDays(v int32) {
	m.Properties().SetInt32("ConfigurationRetentionDays", v)
}
func (m *DomainDescribeReply) ConfigurationEmitMetrics() bool {
	return m.bool("ConfigurationEmitMetrics")
}
func (m *DomainDescribeReply) SetConfigurationEmitMetrics(v bool) {
	m.Properties().SetBool("ConfigurationEmitMetrics", v)
}

type DomainUpdateRequest struct{ ProxyRequest }

func NewDomainUpdateRequest() *DomainUpdateRequest {
	return &DomainUpdateRequest{newProxyRequest(TypeDomainUpdateRequest, TypeDomainUpdateReply)}
}

func (m *DomainUpdateRequest) Name() string     { return m.str("Name") }
func (m *DomainUpdateRequest) SetName(v string) { m.setStr("Name", v) }
func (m *DomainUpdateRequest) UpdatedInfoDescription() string {
	return m.str("UpdatedInfoDescription")
}
func (m *DomainUpdateRequest) SetUpdatedInfoDescription(v string) {
	m.setStr("UpdatedInfoDescription", v)
}
func (m *DomainUpdateRequest) UpdatedInfoOwnerEmail() string {
	return m.str("UpdatedInfoOwnerEmail")
}
func (m *DomainUpdateRequest) SetUpdatedInfoOwnerEmail(v string) {
	m.setStr("UpdatedInfoOwnerEmail", v)
}
func (m *DomainUpdateRequest) ConfigurationEmitMetrics() bool {
	return m.bool("ConfigurationEmitMetrics")
}
func (m *DomainUpdateRequest) SetConfigurationEmitMetrics(v bool) {
	m.Properties().SetBool("ConfigurationEmitMetrics", v)
}
func (m *DomainUpdateRequest) ConfigurationRetentionDays() int32 {
	return m.int32("ConfigurationRetentionDays")
}
func (m *DomainUpdateRequest) SetConfigurationRetentionDays(v int32) {
	m.Properties().SetInt32("ConfigurationRetentionDays", v)
}

type DomainUpdateReply struct{ ProxyReply }

func NewDomainUpdateReply() *DomainUpdateReply {
	return &DomainUpdateReply{newProxyReply(TypeDomainUpdateReply)}
}
