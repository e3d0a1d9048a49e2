package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santiyeai/sitechief/internal/db"
	"github.com/santiyeai/sitechief/internal/db/sqlc"
)

type fakeQueries struct {
	rows []sqlc.CreateGroupAuditLogParams
	err  error
}

func (f *fakeQueries) CreateGroupAuditLog(_ context.Context, arg sqlc.CreateGroupAuditLogParams) (sqlc.GroupAuditLog, error) {
	if f.err != nil {
		return sqlc.GroupAuditLog{}, f.err
	}
	f.rows = append(f.rows, arg)
	return sqlc.GroupAuditLog{GroupID: arg.GroupID, Sender: arg.Sender}, nil
}

func TestRecordWithTenant(t *testing.T) {
	t.Parallel()

	q := &fakeQueries{}
	svc := NewService(nil, q)
	tenantID := "3b241101-e2bb-4255-8caf-4136c566a962"

	err := svc.Record(context.Background(), Entry{
		GroupID:  " g-1 ",
		Sender:   "905551112233",
		TenantID: tenantID,
		Payload:  json.RawMessage(`{"entry":[]}`),
	})
	require.NoError(t, err)
	require.Len(t, q.rows, 1)
	assert.Equal(t, "g-1", q.rows[0].GroupID)
	assert.Equal(t, tenantID, db.UUIDString(q.rows[0].CompanyID))
	assert.JSONEq(t, `{"entry":[]}`, string(q.rows[0].Payload))
}

func TestRecordWithoutTenantStoresNullCompany(t *testing.T) {
	t.Parallel()

	q := &fakeQueries{}
	require.NoError(t, NewService(nil, q).Record(context.Background(), Entry{GroupID: "g", Sender: "s"}))
	require.Len(t, q.rows, 1)
	assert.False(t, q.rows[0].CompanyID.Valid)
	assert.Equal(t, "{}", string(q.rows[0].Payload))
}

func TestRecordErrors(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, NewService(nil, &fakeQueries{}).Record(context.Background(), Entry{}), ErrGroupRequired)

	boom := errors.New("db down")
	err := NewService(nil, &fakeQueries{err: boom}).Record(context.Background(), Entry{GroupID: "g"})
	assert.ErrorIs(t, err, boom)

	assert.Error(t, NewService(nil, nil).Record(context.Background(), Entry{GroupID: "g"}))
}
