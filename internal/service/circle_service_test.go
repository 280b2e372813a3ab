package service_test

import (
	"testing"

	"pulse/internal/model"
	"pulse/internal/service"
	"pulse/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCircleOwnerIsMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	owner := testutil.CreateTestUser(t, db, "owner")

	circle, err := s.circleSvc.Create(owner.ID, "家人", "")
	require.NoError(t, err)
	assert.Equal(t, model.CirclePrivacyPrivate, circle.PrivacyType)
	assert.EqualValues(t, 1, circle.MembersCount)

	member, err := s.circleRepo.IsMember(circle.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, member)

	_, err = s.circleSvc.Create(owner.ID, "", "")
	assert.ErrorIs(t, err, service.ErrInvalidCircle)
}

func TestCircleOwnerOnlyOperations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	owner := testutil.CreateTestUser(t, db, "owner")
	other := testutil.CreateTestUser(t, db, "other")

	circle, err := s.circleSvc.Create(owner.ID, "家人", "")
	require.NoError(t, err)

	_, err = s.circleSvc.Update(circle.ID, other.ID, "改名", "")
	assert.ErrorIs(t, err, service.ErrNotCircleOwner)

	err = s.circleSvc.Delete(circle.ID, other.ID)
	assert.ErrorIs(t, err, service.ErrNotCircleOwner)

	updated, err := s.circleSvc.Update(circle.ID, owner.ID, "改名", model.CirclePrivacyPublic)
	require.NoError(t, err)
	assert.Equal(t, "改名", updated.Name)
	assert.Equal(t, model.CirclePrivacyPublic, updated.PrivacyType)

	require.NoError(t, s.circleSvc.Delete(circle.ID, owner.ID))
	_, err = s.circleSvc.Get(circle.ID, owner.ID)
	assert.ErrorIs(t, err, service.ErrCircleNotFound)
}

func TestInviteRequiresFriendship(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	owner := testutil.CreateTestUser(t, db, "owner")
	friend := testutil.CreateTestUser(t, db, "friend")
	stranger := testutil.CreateTestUser(t, db, "stranger")
	befriend(t, s, owner.ID, friend.ID)

	circle, err := s.circleSvc.Create(owner.ID, "家人", "")
	require.NoError(t, err)

	err = s.circleSvc.Invite(circle.ID, owner.ID, stranger.ID)
	assert.ErrorIs(t, err, service.ErrFriendshipNotFound)

	require.NoError(t, s.circleSvc.Invite(circle.ID, owner.ID, friend.ID))

	// 重复邀请冲突
	err = s.circleSvc.Invite(circle.ID, owner.ID, friend.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyMember)

	// 被邀请者收到circle_invite通知
	list, err := s.notifyRepo.ListForUser(friend.ID, true, 10, 0)
	require.NoError(t, err)
	var found bool
	for _, n := range list {
		if n.Type == model.NotificationTypeCircleInvite {
			found = true
			assert.Equal(t, model.RelatedKindCircle, n.RelatedKind)
			assert.Equal(t, circle.ID, n.RelatedID)
		}
	}
	assert.True(t, found)

	// 成员计数与存活行一致
	got, err := s.circleRepo.GetByID(circle.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.MembersCount)
}

func TestJoinPublicCircle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	owner := testutil.CreateTestUser(t, db, "owner")
	joiner := testutil.CreateTestUser(t, db, "joiner")

	private, err := s.circleSvc.Create(owner.ID, "私圈", model.CirclePrivacyPrivate)
	require.NoError(t, err)
	public, err := s.circleSvc.Create(owner.ID, "公圈", model.CirclePrivacyPublic)
	require.NoError(t, err)

	err = s.circleSvc.Join(private.ID, joiner.ID)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	require.NoError(t, s.circleSvc.Join(public.ID, joiner.ID))

	// 圈主收到高优先级的加入通知
	list, err := s.notifyRepo.ListForUser(owner.ID, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.NotificationTypeCircleJoined, list[0].Type)
	assert.Equal(t, model.PriorityHigh, list[0].Priority)
}

func TestLeaveAndRemoveMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	owner := testutil.CreateTestUser(t, db, "owner")
	m1 := testutil.CreateTestUser(t, db, "m1")
	m2 := testutil.CreateTestUser(t, db, "m2")
	befriend(t, s, owner.ID, m1.ID)
	befriend(t, s, owner.ID, m2.ID)

	circle, err := s.circleSvc.Create(owner.ID, "家人", "")
	require.NoError(t, err)
	require.NoError(t, s.circleSvc.Invite(circle.ID, owner.ID, m1.ID))
	require.NoError(t, s.circleSvc.Invite(circle.ID, owner.ID, m2.ID))

	// 圈主不可退出
	err = s.circleSvc.Leave(circle.ID, owner.ID)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	require.NoError(t, s.circleSvc.Leave(circle.ID, m1.ID))

	// 非成员退出报错
	err = s.circleSvc.Leave(circle.ID, m1.ID)
	assert.ErrorIs(t, err, service.ErrNotCircleMember)

	// 圈主移除成员；移除自己被拒
	err = s.circleSvc.RemoveMember(circle.ID, owner.ID, owner.ID)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)
	require.NoError(t, s.circleSvc.RemoveMember(circle.ID, owner.ID, m2.ID))

	got, err := s.circleRepo.GetByID(circle.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.MembersCount)
}

func TestListCircles(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := newTestServices(t, db)
	owner := testutil.CreateTestUser(t, db, "owner")
	joiner := testutil.CreateTestUser(t, db, "joiner")

	public, err := s.circleSvc.Create(owner.ID, "公圈", model.CirclePrivacyPublic)
	require.NoError(t, err)
	require.NoError(t, s.circleSvc.Join(public.ID, joiner.ID))

	owned, err := s.circleSvc.ListOwned(joiner.ID)
	require.NoError(t, err)
	assert.Empty(t, owned)

	joined, err := s.circleSvc.ListJoined(joiner.ID)
	require.NoError(t, err)
	require.Len(t, joined, 1)
	assert.Equal(t, public.ID, joined[0].ID)
}
