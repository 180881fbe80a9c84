package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/saverpwd/internal/common"
	"github.com/dmitrijs2005/saverpwd/internal/cryptox"
	"github.com/dmitrijs2005/saverpwd/internal/dbx"
	"github.com/dmitrijs2005/saverpwd/internal/models"
	"github.com/dmitrijs2005/saverpwd/internal/repositories"
	"github.com/dmitrijs2005/saverpwd/internal/repositories/repomanager"
)

func TestAliceScenario(t *testing.T) {
	v := newVault(t)
	ctx := context.Background()

	v.mustAddUser(t, "alice", "pw1")
	v.mustAddUnit(t, NewUnit{Username: "alice", Password: "pw1", Name: "mail", Login: "a@x", Secret: "s3cr3t"})

	got, err := v.units.GetUnitSecret(ctx, "alice", "pw1", "mail", "a@x")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", got)

	require.NoError(t, v.users.UpdateUser(ctx, "alice", "pw1", UserUpdate{NewPassword: ptr("pw2")}))

	got, err = v.units.GetUnitSecret(ctx, "alice", "pw2", "mail", "a@x")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", got)

	_, err = v.units.GetUnitSecret(ctx, "alice", "pw1", "mail", "a@x")
	assert.ErrorIs(t, err, common.ErrIncorrectPassword)
	assert.ErrorIs(t, err, common.ErrDecryption)

	ok, err := v.users.VerifyUser(ctx, "alice", "pw2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAddUser(t *testing.T) {
	v := newVault(t)
	ctx := context.Background()

	require.NoError(t, v.users.AddUser(ctx, "alice", "pw1"))
	assert.ErrorIs(t, v.users.AddUser(ctx, "alice", "other"), common.ErrAlreadyExists)
	assert.ErrorIs(t, v.users.AddUser(ctx, "1alice", "pw"), common.ErrValidation)
	assert.ErrorIs(t, v.users.AddUser(ctx, "bob", ""), common.ErrValidation)

	var hash string
	require.NoError(t, v.db.QueryRow(`SELECT password_hash FROM users WHERE username = 'alice'`).Scan(&hash))
	assert.Equal(t, cryptox.PasswordHash("alice", "pw1"), hash)
}

func TestVerifyUser(t *testing.T) {
	v := newVault(t)
	ctx := context.Background()
	v.mustAddUser(t, "alice", "pw1")

	ok, err := v.users.VerifyUser(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.users.VerifyUser(ctx, "alice", "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = v.users.VerifyUser(ctx, "ghost", "pw1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateUser_Preconditions(t *testing.T) {
	v := newVault(t)
	ctx := context.Background()
	v.mustAddUser(t, "alice", "pw1")
	v.mustAddUser(t, "bob", "pw")

	tests := []struct {
		name     string
		username string
		current  string
		in       UserUpdate
		wantErr  error
	}{
		{"nothing", "alice", "pw1", UserUpdate{}, common.ErrNothingToUpdate},
		{"nothing is validation", "alice", "pw1", UserUpdate{}, common.ErrValidation},
		{"missing current", "alice", "", UserUpdate{NewPassword: ptr("x")}, common.ErrMissingCredential},
		{"bad new username", "alice", "pw1", UserUpdate{NewUsername: ptr("9x")}, common.ErrValidation},
		{"empty new password", "alice", "pw1", UserUpdate{NewPassword: ptr("")}, common.ErrValidation},
		{"unknown user", "ghost", "pw1", UserUpdate{NewPassword: ptr("x")}, common.ErrNotFound},
		{"wrong password", "alice", "bad", UserUpdate{NewPassword: ptr("x")}, common.ErrIncorrectPassword},
		{"username taken", "alice", "pw1", UserUpdate{NewUsername: ptr("bob")}, common.ErrAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.users.UpdateUser(ctx, tt.username, tt.current, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	ok, err := v.users.VerifyUser(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateUser_Rename(t *testing.T) {
	v := newVault(t)
	ctx := context.Background()
	v.mustAddUser(t, "alice", "pw1")
	v.mustAddUnit(t, NewUnit{Username: "alice", Password: "pw1", Name: "mail", Login: "a@x", Secret: "s3cr3t"})

	require.NoError(t, v.users.UpdateUser(ctx, "alice", "pw1", UserUpdate{NewUsername: ptr("alicia")}))

	got, err := v.units.GetUnitSecret(ctx, "alicia", "pw1", "mail", "a@x")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", got)

	_, err = v.units.GetUnitSecret(ctx, "alice", "pw1", "mail", "a@x")
	assert.ErrorIs(t, err, common.ErrNotFound)

	names, err := v.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alicia"}, names)
}

func TestUpdateUser_RenameAndPassword(t *testing.T) {
	v := newVault(t)
	ctx := context.Background()
	v.mustAddUser(t, "alice", "pw1")
	v.mustAddUnit(t, NewUnit{Username: "alice", Password: "pw1", Name: "mail", Login: "a@x", Secret: "one"})
	v.mustAddUnit(t, NewUnit{Username: "alice", Password: "pw1", Name: "vpn", Login: "alice", Secret: "two", Category: "work"})

	require.NoError(t, v.users.UpdateUser(ctx, "alice", "pw1", UserUpdate{NewUsername: ptr("al"), NewPassword: ptr("pw2")}))

	for unit, want := range map[[2]string]string{{"mail", "a@x"}: "one", {"vpn", "alice"}: "two"} {
		got, err := v.units.GetUnitSecret(ctx, "al", "pw2", unit[0], unit[1])
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestUpdateUser_WrongPasswordLeavesRowsUntouched(t *testing.T) {
	v := newVault(t)
	ctx := context.Background()
	v.mustAddUser(t, "alice", "pw1")
	v.mustAddUnit(t, NewUnit{Username: "alice", Password: "pw1", Name: "mail", Login: "a@x", Secret: "s3cr3t"})
	before := v.rawUnits(t)

	err := v.users.UpdateUser(ctx, "alice", "wrong", UserUpdate{NewPassword: ptr("pw2")})
	require.ErrorIs(t, err, common.ErrIncorrectPassword)

	assert.Equal(t, before, v.rawUnits(t))
	ok, err := v.users.VerifyUser(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateUser_DecryptFailureRollsBackEverything(t *testing.T) {
	v := newVault(t)
	ctx := context.Background()
	v.mustAddUser(t, "alice", "pw1")
	v.mustAddUnit(t, NewUnit{Username: "alice", Password: "pw1", Name: "a-mail", Login: "a@x", Secret: "first"})
	v.mustAddUnit(t, NewUnit{Username: "alice", Password: "pw1", Name: "b-vpn", Login: "alice", Secret: "second"})

	// break the second unit so re-encryption fails half way
	_, err := v.db.Exec(`UPDATE units SET secret = zeroblob(32) WHERE name = 'b-vpn'`)
	require.NoError(t, err)
	before := v.rawUnits(t)

	err = v.users.UpdateUser(ctx, "alice", "pw1", UserUpdate{NewUsername: ptr("alicia"), NewPassword: ptr("pw2")})
	require.ErrorIs(t, err, common.ErrDecryption)

	assert.Equal(t, before, v.rawUnits(t))

	got, err := v.units.GetUnitSecret(ctx, "alice", "pw1", "a-mail", "a@x")
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	ok, err := v.users.VerifyUser(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.True(t, ok)
	names, err := v.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, names)
}

var errUserRowWrite = errors.New("user row write failed")

// stuckUserManager counts unit rewrites and fails every user row update.
type stuckUserManager struct {
	*repomanager.SQLiteRepositoryManager
	unitUpdates *int
}

func (m stuckUserManager) Users(db dbx.DBTX) repositories.Store[models.User] {
	return stuckUsers{Store: m.SQLiteRepositoryManager.Users(db)}
}

func (m stuckUserManager) Units(db dbx.DBTX) repositories.Store[models.Unit] {
	return countingUnits{Store: m.SQLiteRepositoryManager.Units(db), n: m.unitUpdates}
}

type stuckUsers struct {
	repositories.Store[models.User]
}

func (stuckUsers) Update(context.Context, repositories.Filter, repositories.Changes) (int64, error) {
	return 0, errUserRowWrite
}

type countingUnits struct {
	repositories.Store[models.Unit]
	n *int
}

func (c countingUnits) Update(ctx context.Context, f repositories.Filter, ch repositories.Changes) (int64, error) {
	n, err := c.Store.Update(ctx, f, ch)
	if err == nil {
		*c.n += int(n)
	}
	return n, err
}

func TestUpdateUser_UserRowFailureRollsBackRewrittenUnits(t *testing.T) {
	var unitUpdates int
	v := newVaultWith(t, stuckUserManager{repomanager.NewSQLiteRepositoryManager(), &unitUpdates}, cryptox.SHA256KDF{})
	ctx := context.Background()
	v.mustAddUser(t, "alice", "pw1")
	v.mustAddUnit(t, NewUnit{Username: "alice", Password: "pw1", Name: "a-mail", Login: "a@x", Secret: "first"})
	v.mustAddUnit(t, NewUnit{Username: "alice", Password: "pw1", Name: "b-vpn", Login: "alice", Secret: "second", Category: "work"})
	before := v.rawUnits(t)

	err := v.users.UpdateUser(ctx, "alice", "pw1", UserUpdate{NewPassword: ptr("pw2")})
	require.ErrorIs(t, err, errUserRowWrite)

	// both secrets were rewritten inside the transaction before the user row failed
	require.Equal(t, 2, unitUpdates)
	assert.Equal(t, before, v.rawUnits(t))

	for unit, want := range map[[2]string]string{{"a-mail", "a@x"}: "first", {"b-vpn", "alice"}: "second"} {
		got, err := v.units.GetUnitSecret(ctx, "alice", "pw1", unit[0], unit[1])
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err = v.units.GetUnitSecret(ctx, "alice", "pw2", "a-mail", "a@x")
	assert.ErrorIs(t, err, common.ErrIncorrectPassword)

	ok, err := v.users.VerifyUser(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeleteUser_Cascades(t *testing.T) {
	v := newVault(t)
	ctx := context.Background()
	v.mustAddUser(t, "alice", "pw1")
	v.mustAddUser(t, "bob", "pw")
	v.mustAddUnit(t, NewUnit{Username: "alice", Password: "pw1", Name: "mail", Login: "a@x", Secret: "1"})
	v.mustAddUnit(t, NewUnit{Username: "alice", Password: "pw1", Name: "vpn", Login: "alice", Secret: "2"})
	v.mustAddUnit(t, NewUnit{Username: "bob", Password: "pw", Name: "mail", Login: "a@x", Secret: "3"})
	require.Equal(t, 3, v.count(t, "units"))
	require.Equal(t, 2, v.count(t, "categories"))

	require.NoError(t, v.users.DeleteUser(ctx, "alice"))
	assert.Equal(t, 1, v.count(t, "units"))
	assert.Equal(t, 1, v.count(t, "categories"))

	assert.ErrorIs(t, v.users.DeleteUser(ctx, "alice"), common.ErrNotFound)

	require.NoError(t, v.users.DeleteUser(ctx, "bob"))
	assert.Equal(t, 0, v.count(t, "units"))
	assert.Equal(t, 0, v.count(t, "categories"))
}

func TestListUsers_Sorted(t *testing.T) {
	v := newVault(t)
	ctx := context.Background()

	names, err := v.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	for _, n := range []string{"carol", "alice", "bob"} {
		v.mustAddUser(t, n, "pw")
	}
	names, err = v.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, names)
}

func TestArgon2KDF_EndToEnd(t *testing.T) {
	kdf, err := cryptox.NewArgon2KDF(cryptox.Argon2Params{Time: 1, Memory: 64, Threads: 1})
	require.NoError(t, err)
	v := newVaultWith(t, repomanager.NewSQLiteRepositoryManager(), kdf)
	ctx := context.Background()

	v.mustAddUser(t, "alice", "pw1")
	v.mustAddUnit(t, NewUnit{Username: "alice", Password: "pw1", Name: "mail", Login: "a@x", Secret: "s3cr3t"})
	require.NoError(t, v.users.UpdateUser(ctx, "alice", "pw1", UserUpdate{NewPassword: ptr("pw2")}))

	got, err := v.units.GetUnitSecret(ctx, "alice", "pw2", "mail", "a@x")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", got)
}
