package memory

import (
	"testing"
	"time"

	"github.com/mmynk/weekledger/internal/storage"
	"github.com/mmynk/weekledger/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T, now func() time.Time) storage.Store {
		return New(now)
	})
}
