package service_test

import (
	"encoding/json"
	"testing"
	"time"

	"pulse/internal/model"
	"pulse/internal/service"
	"pulse/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifySuppressesSelf(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	a := testutil.CreateTestUser(t, db, "alice")

	pulse := &model.Pulse{ID: 1, SenderID: a.ID, Type: model.PulseTypeDirect, Message: "hi"}
	s.notifySvc.NotifyPulseReceived(a.ID, a.ID, pulse)

	count, err := s.notifyRepo.CountUnread(a.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotifyCarriesActorSnapshot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	a := testutil.CreateTestUser(t, db, "alice")
	b := testutil.CreateTestUser(t, db, "bob")

	pulse := &model.Pulse{ID: 1, SenderID: a.ID, Type: model.PulseTypeDirect, Message: "hi"}
	s.notifySvc.NotifyPulseReceived(a.ID, b.ID, pulse)

	list, err := s.notifyRepo.ListForUser(b.ID, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	n := list[0]
	assert.Equal(t, "alice", n.ActorName)
	assert.Equal(t, "/avatars/alice.png", n.ActorAvatar)
	require.NotNil(t, n.FromUserID)
	assert.Equal(t, a.ID, *n.FromUserID)

	// 触发者随后改名不回写历史通知
	require.NoError(t, s.userRepo.UpdateProfile(a.ID, "alice2", ""))
	got, err := s.notifyRepo.GetByID(n.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.ActorName)

	// data携带关联pulse
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(n.Data, &data))
	assert.EqualValues(t, pulse.ID, data["pulse_id"])
}

func TestNotifyUnknownActorIsDropped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	b := testutil.CreateTestUser(t, db, "bob")

	pulse := &model.Pulse{ID: 1, SenderID: 9999, Type: model.PulseTypeDirect, Message: "hi"}
	s.notifySvc.NotifyPulseReceived(9999, b.ID, pulse)

	count, err := s.notifyRepo.CountUnread(b.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMarkReadOwnership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	a := testutil.CreateTestUser(t, db, "alice")
	b := testutil.CreateTestUser(t, db, "bob")

	pulse := &model.Pulse{ID: 1, SenderID: a.ID, Type: model.PulseTypeDirect, Message: "hi"}
	s.notifySvc.NotifyPulseReceived(a.ID, b.ID, pulse)

	list, err := s.notifyRepo.ListForUser(b.ID, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	// 他人不能标记
	err = s.notifySvc.MarkRead(list[0].ID, a.ID)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	require.NoError(t, s.notifySvc.MarkRead(list[0].ID, b.ID))
	// 重复标记无害
	require.NoError(t, s.notifySvc.MarkRead(list[0].ID, b.ID))

	err = s.notifySvc.MarkRead(9999, b.ID)
	assert.ErrorIs(t, err, service.ErrNotificationNotFound)
}

func TestGetUnreadCountFallsBackToDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	a := testutil.CreateTestUser(t, db, "alice")
	b := testutil.CreateTestUser(t, db, "bob")

	pulse := &model.Pulse{ID: 1, SenderID: a.ID, Type: model.PulseTypeDirect, Message: "hi"}
	s.notifySvc.NotifyPulseReceived(a.ID, b.ID, pulse)
	s.notifySvc.NotifyReaction(a.ID, &model.Pulse{ID: 2, SenderID: b.ID}, "heart")

	// 测试环境无Redis，计数直接回源数据库
	count, err := s.notifySvc.GetUnreadCount(b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestCleanupHonorsRetention(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	a := testutil.CreateTestUser(t, db, "alice")
	b := testutil.CreateTestUser(t, db, "bob")

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	s.notifySvc.SetClock(func() time.Time { return now })

	pulse := &model.Pulse{ID: 1, SenderID: a.ID, Type: model.PulseTypeDirect, Message: "hi"}
	s.notifySvc.NotifyPulseReceived(a.ID, b.ID, pulse)
	s.notifySvc.NotifyPulseReceived(a.ID, b.ID, pulse)

	list, err := s.notifyRepo.ListForUser(b.ID, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)

	// 一条已读且过期，一条已读但新近
	old := now.AddDate(0, 0, -31)
	require.NoError(t, db.Model(list[0]).UpdateColumns(map[string]interface{}{"is_read": true, "created_at": old}).Error)
	require.NoError(t, db.Model(list[1]).UpdateColumn("is_read", true).Error)

	deleted, err := s.notifySvc.Cleanup(30)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	remaining, err := s.notifyRepo.ListForUser(b.ID, false, 10, 0)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestListPagination(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	a := testutil.CreateTestUser(t, db, "alice")
	b := testutil.CreateTestUser(t, db, "bob")

	for i := 0; i < 5; i++ {
		s.notifySvc.NotifyPulseReceived(a.ID, b.ID, &model.Pulse{ID: uint(i + 1), SenderID: a.ID, Message: "hi"})
	}

	page1, err := s.notifySvc.List(b.ID, false, 1, 3)
	require.NoError(t, err)
	assert.Len(t, page1, 3)

	page2, err := s.notifySvc.List(b.ID, false, 2, 3)
	require.NoError(t, err)
	assert.Len(t, page2, 2)
}
