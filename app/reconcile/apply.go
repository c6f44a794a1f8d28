package reconcile

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Septrum101/linodeDdns/app/ip"
	"github.com/Septrum101/linodeDdns/common/ddns"
)

// Apply executes ops in order and returns the ones that succeeded. A failed
// create or update skips the remaining operations of its family, the other
// family is still processed. Deletes do not depend on each other, so a failed
// delete skips nothing. Errors of both families are joined.
func Apply(ctx context.Context, client ddns.Client, domainID string, name string, ops []Operation) ([]Operation, error) {
	var (
		applied []Operation
		errs    []error
	)
	failed := make(map[ip.Family]bool, len(ip.Families))

	for _, op := range ops {
		if failed[op.Family] {
			log.Warnf("[%s] Skipping %s after an earlier %s failure", name, op, op.Family)
			continue
		}

		log.Infof("[%s] Attempting %s", name, op)
		created, err := applyOne(ctx, client, domainID, op)
		if err != nil {
			log.Errorf("[%s] Failed %s: %v", name, op, err)
			if op.Action != Delete {
				failed[op.Family] = true
			}
			errs = append(errs, fmt.Errorf("%s %s record: %w", op.Action, op.Family, err))
			continue
		}
		if op.Action == Create {
			op.Record = created
		}
		log.Infof("[%s] Successful %s", name, op)
		applied = append(applied, op)
	}

	return applied, errors.Join(errs...)
}

func applyOne(ctx context.Context, client ddns.Client, domainID string, op Operation) (ddns.Record, error) {
	switch op.Action {
	case Create:
		return client.CreateRecord(ctx, domainID, op.Record)
	case Update:
		return op.Record, client.UpdateRecord(ctx, domainID, op.Record.ID, op.Target, op.TTL)
	case Delete:
		return op.Record, client.DeleteRecord(ctx, domainID, op.Record.ID)
	default:
		return op.Record, fmt.Errorf("unknown action %d", op.Action)
	}
}
