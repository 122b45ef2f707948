package service

import (
	"context"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	byID      map[string]*models.User
	byEmail   map[string]*models.User
	addresses map[string]*models.UserAddress
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:      make(map[string]*models.User),
		byEmail:   make(map[string]*models.User),
		addresses: make(map[string]*models.UserAddress),
	}
}

func (f *fakeUserStore) CreateUser(ctx context.Context, user *models.User) error {
	if _, exists := f.byEmail[user.Email]; exists {
		return store.ErrDuplicate
	}
	copied := *user
	f.byID[user.ID] = &copied
	f.byEmail[user.Email] = &copied
	return nil
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) MarkUserVerified(ctx context.Context, id string) (bool, error) {
	user, ok := f.byID[id]
	if !ok || user.IsVerified {
		return false, nil
	}
	user.IsVerified = true
	return true, nil
}

func (f *fakeUserStore) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	user, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = passwordHash
	return nil
}

func (f *fakeUserStore) UpdateUser(ctx context.Context, user *models.User) error {
	existing, ok := f.byID[user.ID]
	if !ok {
		return store.ErrNotFound
	}
	if other, taken := f.byEmail[user.Email]; taken && other.ID != user.ID {
		return store.ErrDuplicate
	}
	delete(f.byEmail, existing.Email)
	*existing = *user
	f.byEmail[existing.Email] = existing
	return nil
}

func (f *fakeUserStore) PromoteUser(ctx context.Context, id string) error {
	user, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	user.IsAdmin = true
	return nil
}

func (f *fakeUserStore) DeleteUser(ctx context.Context, id string) error {
	user, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(f.byEmail, user.Email)
	delete(f.byID, id)
	return nil
}

func (f *fakeUserStore) CreateAddress(ctx context.Context, a *models.UserAddress) error {
	copied := *a
	f.addresses[a.ID] = &copied
	return nil
}

func (f *fakeUserStore) GetAddressByID(ctx context.Context, id string) (*models.UserAddress, error) {
	address, ok := f.addresses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *address
	return &copied, nil
}

func (f *fakeUserStore) ListAddresses(ctx context.Context, userID string) ([]models.UserAddress, error) {
	var out []models.UserAddress
	for _, address := range f.addresses {
		if address.UserID == userID {
			out = append(out, *address)
		}
	}
	return out, nil
}

func (f *fakeUserStore) UpdateAddress(ctx context.Context, a *models.UserAddress) error {
	if _, ok := f.addresses[a.ID]; !ok {
		return store.ErrNotFound
	}
	copied := *a
	f.addresses[a.ID] = &copied
	return nil
}

func (f *fakeUserStore) DeleteAddress(ctx context.Context, id string) error {
	if _, ok := f.addresses[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.addresses, id)
	return nil
}

func (f *fakeUserStore) ListUsers(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	var out []models.User
	for _, user := range f.byID {
		out = append(out, *user)
	}
	return out, nil
}

func (f *fakeUserStore) CountUsers(ctx context.Context, query string) (int, error) {
	return len(f.byID), nil
}

type fakeResetStore struct {
	tokens map[string]string
}

func newFakeResetStore() *fakeResetStore {
	return &fakeResetStore{tokens: make(map[string]string)}
}

func (f *fakeResetStore) SetResetToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	f.tokens[token] = userID
	return nil
}

func (f *fakeResetStore) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	userID, ok := f.tokens[token]
	if !ok {
		return "", store.ErrNotFound
	}
	delete(f.tokens, token)
	return userID, nil
}

type fakeUserPublisher struct {
	verifications []*models.VerificationEmailEvent
	resets        []*models.PasswordResetEmailEvent
}

func (f *fakeUserPublisher) PublishVerificationEmail(ctx context.Context, event *models.VerificationEmailEvent) error {
	f.verifications = append(f.verifications, event)
	return nil
}

func (f *fakeUserPublisher) PublishPasswordResetEmail(ctx context.Context, event *models.PasswordResetEmailEvent) error {
	f.resets = append(f.resets, event)
	return nil
}

func newTestUserService() (*UserService, *fakeUserStore, *fakeResetStore, *fakeUserPublisher) {
	st := newFakeUserStore()
	resets := newFakeResetStore()
	pub := &fakeUserPublisher{}
	tokens := auth.NewTokenService("test-secret", "storefront", "storefront-web",
		15*time.Minute, 7*24*time.Hour, 24*time.Hour)
	return NewUserService(st, tokens, resets, pub), st, resets, pub
}

func registerVerifiedUser(t *testing.T, svc *UserService, st *fakeUserStore, email, password string) *models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Alice",
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	st.byID[user.ID].IsVerified = true
	return user
}

func TestRegisterSendsVerificationEmail(t *testing.T) {
	svc, st, _, pub := newTestUserService()

	user, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.False(t, user.IsVerified)

	// Password never stored in the clear
	assert.NotEqual(t, "hunter2hunter2", st.byID[user.ID].Password)

	require.Len(t, pub.verifications, 1)
	assert.Equal(t, "alice@example.com", pub.verifications[0].Email)
	assert.NotEmpty(t, pub.verifications[0].Token)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestUserService()

	req := RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "hunter2hunter2"}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginRequiresVerifiedAccount(t *testing.T) {
	svc, st, _, _ := newTestUserService()

	user, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "alice@example.com", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrNotVerified)

	st.byID[user.ID].IsVerified = true

	loggedIn, pair, err := svc.Login(context.Background(), "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, st, _, _ := newTestUserService()
	registerVerifiedUser(t, svc, st, "alice@example.com", "hunter2hunter2")

	_, _, err := svc.Login(context.Background(), "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "nobody@example.com", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyEmailFlow(t *testing.T) {
	svc, _, _, pub := newTestUserService()

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	require.Len(t, pub.verifications, 1)

	token := pub.verifications[0].Token
	require.NoError(t, svc.VerifyEmail(context.Background(), token))

	_, _, err = svc.Login(context.Background(), "alice@example.com", "hunter2hunter2")
	assert.NoError(t, err)

	// Redeeming the link twice reports the conflict
	err = svc.VerifyEmail(context.Background(), token)
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestVerifyEmailRejectsAccessToken(t *testing.T) {
	svc, st, _, _ := newTestUserService()
	registerVerifiedUser(t, svc, st, "alice@example.com", "hunter2hunter2")

	_, pair, err := svc.Login(context.Background(), "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)

	// An access token is not a verification token
	err = svc.VerifyEmail(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrWrongTokenType)
}

func TestRefreshTokenPair(t *testing.T) {
	svc, st, _, _ := newTestUserService()
	registerVerifiedUser(t, svc, st, "alice@example.com", "hunter2hunter2")

	_, pair, err := svc.Login(context.Background(), "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)

	fresh, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)

	// Access tokens cannot be exchanged
	_, err = svc.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrWrongTokenType)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, st, _, pub := newTestUserService()
	registerVerifiedUser(t, svc, st, "alice@example.com", "hunter2hunter2")

	require.NoError(t, svc.ForgotPassword(context.Background(), "alice@example.com"))
	require.Len(t, pub.resets, 1)
	token := pub.resets[0].Token

	require.NoError(t, svc.ResetPassword(context.Background(), token, "new-password-1"))

	_, _, err := svc.Login(context.Background(), "alice@example.com", "new-password-1")
	assert.NoError(t, err)
	_, _, err = svc.Login(context.Background(), "alice@example.com", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// The token is single use
	err = svc.ResetPassword(context.Background(), token, "another-password")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	svc, _, _, pub := newTestUserService()

	// No error and no email: the endpoint must not reveal which addresses
	// are registered
	assert.NoError(t, svc.ForgotPassword(context.Background(), "nobody@example.com"))
	assert.Empty(t, pub.resets)
}

func TestUpdateProfile(t *testing.T) {
	svc, st, _, _ := newTestUserService()
	user := registerVerifiedUser(t, svc, st, "alice@example.com", "hunter2hunter2")

	updated, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileRequest{
		Name:     "Alice Cooper",
		Password: "new-password-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", updated.Name)

	// Empty fields keep their current value
	assert.Equal(t, "alice@example.com", updated.Email)

	_, _, err = svc.Login(context.Background(), "alice@example.com", "new-password-1")
	assert.NoError(t, err)
	_, _, err = svc.Login(context.Background(), "alice@example.com", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateProfileDuplicateEmail(t *testing.T) {
	svc, st, _, _ := newTestUserService()
	registerVerifiedUser(t, svc, st, "alice@example.com", "hunter2hunter2")
	bob := registerVerifiedUser(t, svc, st, "bob@example.com", "hunter2hunter2")

	_, err := svc.UpdateProfile(context.Background(), bob.ID, UpdateProfileRequest{
		Email: "alice@example.com",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestPromoteAdmin(t *testing.T) {
	svc, st, _, _ := newTestUserService()
	user := registerVerifiedUser(t, svc, st, "alice@example.com", "hunter2hunter2")

	require.NoError(t, svc.PromoteAdmin(context.Background(), user.ID))
	assert.True(t, st.byID[user.ID].IsAdmin)

	err := svc.PromoteAdmin(context.Background(), "no-such-user")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteUser(t *testing.T) {
	svc, st, _, _ := newTestUserService()
	user := registerVerifiedUser(t, svc, st, "alice@example.com", "hunter2hunter2")

	require.NoError(t, svc.DeleteUser(context.Background(), user.ID))

	_, err := svc.GetUser(context.Background(), user.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = svc.DeleteUser(context.Background(), user.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testAddress() AddressRequest {
	return AddressRequest{
		Street:     "1 Main St",
		City:       "Springfield",
		Country:    "US",
		PostalCode: "12345",
	}
}

func TestAddressBookLifecycle(t *testing.T) {
	svc, st, _, _ := newTestUserService()
	user := registerVerifiedUser(t, svc, st, "alice@example.com", "hunter2hunter2")

	address, err := svc.AddAddress(context.Background(), user, user.ID, testAddress())
	require.NoError(t, err)
	assert.Equal(t, user.ID, address.UserID)

	listed, err := svc.ListAddresses(context.Background(), user, user.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "1 Main St", listed[0].Street)

	edit := testAddress()
	edit.Street = "2 Oak Ave"
	updated, err := svc.UpdateAddress(context.Background(), user, user.ID, address.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, "2 Oak Ave", updated.Street)

	require.NoError(t, svc.DeleteAddress(context.Background(), user, user.ID, address.ID))

	listed, err = svc.ListAddresses(context.Background(), user, user.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestAddressBookOwnerOrAdminOnly(t *testing.T) {
	svc, st, _, _ := newTestUserService()
	alice := registerVerifiedUser(t, svc, st, "alice@example.com", "hunter2hunter2")
	bob := registerVerifiedUser(t, svc, st, "bob@example.com", "hunter2hunter2")
	root := registerVerifiedUser(t, svc, st, "root@example.com", "hunter2hunter2")
	st.byID[root.ID].IsAdmin = true
	root.IsAdmin = true

	_, err := svc.AddAddress(context.Background(), bob, alice.ID, testAddress())
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.ListAddresses(context.Background(), bob, alice.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// Admins manage any address book
	address, err := svc.AddAddress(context.Background(), root, alice.ID, testAddress())
	require.NoError(t, err)
	assert.Equal(t, alice.ID, address.UserID)
}

func TestAddressBookCrossUserEntry(t *testing.T) {
	svc, st, _, _ := newTestUserService()
	alice := registerVerifiedUser(t, svc, st, "alice@example.com", "hunter2hunter2")
	bob := registerVerifiedUser(t, svc, st, "bob@example.com", "hunter2hunter2")

	address, err := svc.AddAddress(context.Background(), alice, alice.ID, testAddress())
	require.NoError(t, err)

	// Bob's own book does not contain Alice's entry, so the ID reads as
	// not found rather than leaking its existence
	_, err = svc.UpdateAddress(context.Background(), bob, bob.ID, address.ID, testAddress())
	assert.ErrorIs(t, err, store.ErrNotFound)
	err = svc.DeleteAddress(context.Background(), bob, bob.ID, address.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
