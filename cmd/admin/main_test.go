package main

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"rwid/internal/database"
	"rwid/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	t.Cleanup(func() { _ = sqlDB.Close() })

	username := "ana"
	require.NoError(t, db.Create(&models.Account{UID: "uid-ana", Username: &username, Provider: models.ProviderPassword}).Error)
	platform := &models.Platform{Name: "Alpha", Slug: "alpha", OwnerID: "owner-1", Public: true}
	require.NoError(t, db.Create(platform).Error)
	require.NoError(t, db.Create(&models.Community{PlatformID: platform.ID, Name: "General"}).Error)
	require.NoError(t, db.Create(&models.Community{PlatformID: platform.ID, Name: "Wins"}).Error)
	return db
}

func TestRun_PromoteAndDemote(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	var out bytes.Buffer

	require.NoError(t, run(ctx, db, []string{"promote", "ana"}, &out))
	assert.Contains(t, out.String(), "promoted ana")

	out.Reset()
	require.NoError(t, run(ctx, db, []string{"list-admins"}, &out))
	assert.Contains(t, out.String(), "UID: uid-ana | Username: ana")

	out.Reset()
	require.NoError(t, run(ctx, db, []string{"promote", "ana"}, &out))
	assert.Contains(t, out.String(), "already has admin=true")

	require.NoError(t, run(ctx, db, []string{"demote", "ana"}, &out))
	var acc models.Account
	require.NoError(t, db.First(&acc, "uid = ?", "uid-ana").Error)
	assert.False(t, acc.IsAdmin)

	assert.ErrorContains(t, run(ctx, db, []string{"promote", "nobody"}, &out), "not found")
}

func TestRun_Membership(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	var out bytes.Buffer

	var communities []models.Community
	require.NoError(t, db.Order("id").Find(&communities).Error)
	require.Len(t, communities, 2)

	admitArgs := func(c models.Community) []string {
		return []string{"admit", "alpha", itoa(c.ID), "ana"}
	}
	require.NoError(t, run(ctx, db, admitArgs(communities[0]), &out))
	require.NoError(t, run(ctx, db, admitArgs(communities[1]), &out))
	require.NoError(t, run(ctx, db, admitArgs(communities[1]), &out))

	var rows []models.MemberCommunity
	require.NoError(t, db.Where("user_id = ?", "uid-ana").Find(&rows).Error)
	assert.Len(t, rows, 2, "admissions accumulate without duplicates")

	require.NoError(t, run(ctx, db, []string{"mark-paid", "alpha", "ana"}, &out))
	var member models.PlatformMember
	require.NoError(t, db.First(&member, "user_id = ?", "uid-ana").Error)
	assert.True(t, member.HasPaid)

	require.NoError(t, db.Where("user_id = ?", "uid-ana").Find(&rows).Error)
	assert.Len(t, rows, 2, "marking paid keeps admissions")
}

func TestRun_Usage(t *testing.T) {
	db := setupDB(t)
	var out bytes.Buffer
	for _, args := range [][]string{
		{},
		{"promote"},
		{"unknown", "x"},
		{"admit", "alpha", "ana"},
	} {
		assert.ErrorIs(t, run(context.Background(), db, args, &out), errUsage, "%v", args)
	}
	assert.ErrorContains(t, run(context.Background(), db, []string{"admit", "alpha", "x", "ana"}, &out), "invalid community id")
}

func itoa(id uint) string {
	return fmt.Sprint(id)
}

func TestRun_SetPassword(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	var out bytes.Buffer

	t.Setenv("RWID_NEW_PASSWORD", "")
	assert.ErrorContains(t, run(ctx, db, []string{"set-password", "ana"}, &out), "RWID_NEW_PASSWORD is not set")

	t.Setenv("RWID_NEW_PASSWORD", "ana-2024-ana!")
	assert.ErrorContains(t, run(ctx, db, []string{"set-password", "ana"}, &out), "must not contain the username")

	t.Setenv("RWID_NEW_PASSWORD", "correct-horse-7")
	require.NoError(t, run(ctx, db, []string{"set-password", "ana"}, &out))
	assert.Contains(t, out.String(), "Password updated for ana")

	var account models.Account
	require.NoError(t, db.First(&account, "uid = ?", "uid-ana").Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("correct-horse-7")))
}
