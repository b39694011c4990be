package statestore

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Spec configures a Store at construction time: a required name, a
// required codec pair, a required on-disk directory, and the ambient
// fields (logger, metrics) a complete deployment needs beyond the bare
// store-spec contract.
type Spec[K, V any] struct {
	// Name identifies the store, used in logs, metrics labels, and error
	// messages.
	Name string

	// KeyCoder and ValCoder encode/decode K and V to/from the bytes the
	// engine persists.
	KeyCoder Coder[K]
	ValCoder Coder[V]

	// LocalStateStoreDir is the on-disk path the underlying engine opens.
	// Its parent directory is created if absent.
	LocalStateStoreDir string

	// Stream optionally names the logical stream this store belongs to,
	// for deployments that multiplex several stores.
	Stream string

	// Logger receives structured logs for every engine operation. A nil
	// Logger disables logging (equivalent to zap.NewNop()).
	Logger *zap.Logger

	// MetricsEnabled registers Prometheus collectors for this store's
	// operations when the store is opened by Init.
	MetricsEnabled bool
}

func (s Spec[K, V]) validate() error {
	if s.Name == "" {
		return errors.New("spec: name is required")
	}
	if s.KeyCoder == nil {
		return errors.New("spec: key_coder is required")
	}
	if s.ValCoder == nil {
		return errors.New("spec: val_coder is required")
	}
	if s.LocalStateStoreDir == "" {
		return errors.New("spec: local_state_store_dir is required")
	}
	return nil
}
