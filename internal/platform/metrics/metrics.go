package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus counters for the application.
type Metrics struct {
	UsersCreated          prometheus.Counter
	ContractsCreated      prometheus.Counter
	ContractsArchived     prometheus.Counter
	AttachmentsUploaded   prometheus.Counter
	AttachmentsDeleted    prometheus.Counter
	AuditEntriesWritten   prometheus.Counter
	NotificationsSent     prometheus.Counter
	NotificationFailures  prometheus.Counter
	EventHandlerFailures  prometheus.Counter
	OrphanedStorageObject prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return newWith(prometheus.DefaultRegisterer)
}

// NewForTest registers the metrics on a private registry so parallel tests do
// not collide on the default one.
func NewForTest() *Metrics {
	return newWith(prometheus.NewRegistry())
}

func newWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UsersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "contratos_users_created_total",
			Help: "Total number of users created in the system",
		}),
		ContractsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "contratos_contracts_created_total",
			Help: "Total number of contracts created",
		}),
		ContractsArchived: factory.NewCounter(prometheus.CounterOpts{
			Name: "contratos_contracts_archived_total",
			Help: "Total number of contracts archived and purged",
		}),
		AttachmentsUploaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "contratos_attachments_uploaded_total",
			Help: "Total number of attachments uploaded",
		}),
		AttachmentsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "contratos_attachments_deleted_total",
			Help: "Total number of attachments deleted",
		}),
		AuditEntriesWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "contratos_audit_entries_written_total",
			Help: "Total number of audit entries appended",
		}),
		NotificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "contratos_notifications_sent_total",
			Help: "Total number of status notifications delivered",
		}),
		NotificationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "contratos_notification_failures_total",
			Help: "Total number of notification deliveries that failed",
		}),
		EventHandlerFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "contratos_event_handler_failures_total",
			Help: "Total number of event handler invocations that returned an error",
		}),
		OrphanedStorageObject: factory.NewCounter(prometheus.CounterOpts{
			Name: "contratos_orphaned_storage_objects_total",
			Help: "Objects left in storage after their metadata row was removed",
		}),
	}
}
