package postgres_test

import (
	"testing"

	"github.com/Shivanand-hulikatti/campus-events/internal/repository"
	"github.com/Shivanand-hulikatti/campus-events/internal/repository/repotest"
	"github.com/Shivanand-hulikatti/campus-events/internal/testutil"
)

// Runs only when CAMPUS_EVENTS_TEST_DATABASE_URL points at a disposable database.
func TestStoreContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Store {
		return testutil.NewPostgresStore(t)
	})
}
