package worker

import (
	"github.com/spec-kit/pharmat-audit/internal/service"
)

// StartAuditWorker registers the audit trail subscribers.
func StartAuditWorker(audit *service.AuditService) {
	if audit == nil {
		return
	}
	audit.RegisterHandlers()
}
