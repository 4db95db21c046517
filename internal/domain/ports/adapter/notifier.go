package adapter

import "context"

// AdminNotifier pushes operational alerts (grant failures, reconciliation
// findings) to whoever is on call.
type AdminNotifier interface {
	NotifyAdmins(ctx context.Context, message string) error
}
