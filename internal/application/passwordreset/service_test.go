package passwordreset

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aerosense/aerosense-api/internal/domain"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	return m.Called(ctx, userID, passwordHash).Error(0)
}

type mockResetTokenStore struct{ mock.Mock }

func (m *mockResetTokenStore) Upsert(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	return m.Called(ctx, userID, tokenHash, expiresAt).Error(0)
}
func (m *mockResetTokenStore) GetByUserID(ctx context.Context, userID int64) (*domain.ResetToken, error) {
	args := m.Called(ctx, userID)
	if t, _ := args.Get(0).(*domain.ResetToken); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockResetTokenStore) SetVerificationToken(ctx context.Context, userID int64, token string) error {
	return m.Called(ctx, userID, token).Error(0)
}
func (m *mockResetTokenStore) GetByVerificationToken(ctx context.Context, userID int64, token string) (*domain.ResetToken, error) {
	args := m.Called(ctx, userID, token)
	if t, _ := args.Get(0).(*domain.ResetToken); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockResetTokenStore) Delete(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

func newService(us *mockUserStore, ts *mockResetTokenStore, ml *mockMailer) Service {
	return NewService(ServiceDeps{
		UserRepo:       us,
		ResetTokenRepo: ts,
		Mailer:         ml,
		OTPTTL:         30 * time.Minute,
	})
}

var otpPattern = regexp.MustCompile(`\d{6}`)

// --- Request ---

func TestRequest_MissingEmail(t *testing.T) {
	svc := newService(&mockUserStore{}, &mockResetTokenStore{}, &mockMailer{})

	err := svc.Request(context.Background(), "")

	require.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestRequest_UnknownEmailIsUniformAndCreatesNothing(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "ghost@x.com").Return(nil, domain.ErrNotFound)
	ts := &mockResetTokenStore{}
	ml := &mockMailer{}

	svc := newService(us, ts, ml)
	err := svc.Request(context.Background(), "ghost@x.com")

	require.NoError(t, err)
	ts.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	ml.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequest_StoresHashedOTPAndSendsPlaintext(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").
		Return(&domain.User{ID: 1, Email: "a@x.com"}, nil)

	var storedHash string
	var expiry time.Time
	ts := &mockResetTokenStore{}
	ts.On("Upsert", mock.Anything, int64(1), mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			storedHash = args.String(2)
			expiry = args.Get(3).(time.Time)
		}).
		Return(nil)

	var sentBody string
	ml := &mockMailer{}
	ml.On("SendEmail", "a@x.com", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sentBody = args.String(2) }).
		Return(nil)

	svc := newService(us, ts, ml)
	require.NoError(t, svc.Request(context.Background(), "a@x.com"))

	code := otpPattern.FindString(sentBody)
	require.Len(t, code, 6)
	// The stored value is a hash of the delivered code, never the code itself.
	assert.NotContains(t, storedHash, code)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(code)))
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiry, 5*time.Second)
}

func TestRequest_MailFailureIsNonFatal(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").
		Return(&domain.User{ID: 1, Email: "a@x.com"}, nil)
	ts := &mockResetTokenStore{}
	ts.On("Upsert", mock.Anything, int64(1), mock.Anything, mock.Anything).Return(nil)
	ml := &mockMailer{}
	ml.On("SendEmail", "a@x.com", mock.Anything, mock.Anything).
		Return(errors.New("smtp unreachable"))

	svc := newService(us, ts, ml)

	// The stored token is the source of truth; delivery failure still succeeds.
	require.NoError(t, svc.Request(context.Background(), "a@x.com"))
}

// --- Verify ---

func TestVerify_MissingFields(t *testing.T) {
	svc := newService(&mockUserStore{}, &mockResetTokenStore{}, &mockMailer{})

	_, err := svc.Verify(context.Background(), "a@x.com", "")

	require.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestVerify_NoRequestOutstanding(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").
		Return(&domain.User{ID: 1, Email: "a@x.com"}, nil)
	ts := &mockResetTokenStore{}
	ts.On("GetByUserID", mock.Anything, int64(1)).Return(nil, domain.ErrNotFound)

	svc := newService(us, ts, &mockMailer{})
	_, err := svc.Verify(context.Background(), "a@x.com", "123456")

	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVerify_ExpiredOTPRejectedEvenWhenCorrect(t *testing.T) {
	code := "123456"
	hash, _ := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").
		Return(&domain.User{ID: 1, Email: "a@x.com"}, nil)
	ts := &mockResetTokenStore{}
	ts.On("GetByUserID", mock.Anything, int64(1)).
		Return(&domain.ResetToken{UserID: 1, TokenHash: string(hash), ExpiresAt: time.Now().Add(-time.Minute)}, nil)

	svc := newService(us, ts, &mockMailer{})
	_, err := svc.Verify(context.Background(), "a@x.com", code)

	require.ErrorIs(t, err, domain.ErrExpired)
}

func TestVerify_WrongOTP(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.DefaultCost)
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").
		Return(&domain.User{ID: 1, Email: "a@x.com"}, nil)
	ts := &mockResetTokenStore{}
	ts.On("GetByUserID", mock.Anything, int64(1)).
		Return(&domain.ResetToken{UserID: 1, TokenHash: string(hash), ExpiresAt: time.Now().Add(time.Minute)}, nil)

	svc := newService(us, ts, &mockMailer{})
	_, err := svc.Verify(context.Background(), "a@x.com", "654321")

	require.ErrorIs(t, err, domain.ErrBadRequest)
	ts.AssertNotCalled(t, "SetVerificationToken", mock.Anything, mock.Anything, mock.Anything)
}

// --- Reset ---

func TestReset_InvalidVerificationToken(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").
		Return(&domain.User{ID: 1, Email: "a@x.com"}, nil)
	ts := &mockResetTokenStore{}
	ts.On("GetByVerificationToken", mock.Anything, int64(1), "bogus").
		Return(nil, domain.ErrNotFound)

	svc := newService(us, ts, &mockMailer{})
	err := svc.Reset(context.Background(), "a@x.com", "newpassword", "bogus")

	require.ErrorIs(t, err, domain.ErrBadRequest)
	us.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestReset_ExpiredVerificationToken(t *testing.T) {
	cap := "captoken"
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").
		Return(&domain.User{ID: 1, Email: "a@x.com"}, nil)
	ts := &mockResetTokenStore{}
	ts.On("GetByVerificationToken", mock.Anything, int64(1), cap).
		Return(&domain.ResetToken{UserID: 1, VerificationToken: &cap, ExpiresAt: time.Now().Add(-time.Minute)}, nil)

	svc := newService(us, ts, &mockMailer{})
	err := svc.Reset(context.Background(), "a@x.com", "newpassword", cap)

	require.ErrorIs(t, err, domain.ErrExpired)
}

// --- full protocol round trip ---

func TestResetProtocol_RoundTrip(t *testing.T) {
	user := &domain.User{ID: 1, Email: "a@x.com"}
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)

	var storedHash string
	var expiry time.Time
	ts := &mockResetTokenStore{}
	ts.On("Upsert", mock.Anything, int64(1), mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			storedHash = args.String(2)
			expiry = args.Get(3).(time.Time)
		}).
		Return(nil)

	var sentBody string
	ml := &mockMailer{}
	ml.On("SendEmail", "a@x.com", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sentBody = args.String(2) }).
		Return(nil)

	svc := newService(us, ts, ml)

	// Phase 1: request. The OTP reaches us only through the delivery hook.
	require.NoError(t, svc.Request(context.Background(), "a@x.com"))
	code := otpPattern.FindString(sentBody)
	require.Len(t, code, 6)

	// Phase 2: verify the delivered code against the stored row.
	ts.On("GetByUserID", mock.Anything, int64(1)).
		Return(&domain.ResetToken{UserID: 1, TokenHash: storedHash, ExpiresAt: expiry}, nil)
	var capability string
	ts.On("SetVerificationToken", mock.Anything, int64(1), mock.Anything).
		Run(func(args mock.Arguments) { capability = args.String(2) }).
		Return(nil)

	verificationToken, err := svc.Verify(context.Background(), "a@x.com", code)
	require.NoError(t, err)
	assert.Equal(t, capability, verificationToken)
	assert.GreaterOrEqual(t, len(verificationToken), 64)

	// Phase 3: reset with the capability; the slot is consumed.
	ts.On("GetByVerificationToken", mock.Anything, int64(1), verificationToken).
		Return(&domain.ResetToken{UserID: 1, TokenHash: storedHash, VerificationToken: &verificationToken, ExpiresAt: expiry}, nil)
	var newHash string
	us.On("UpdatePassword", mock.Anything, int64(1), mock.Anything).
		Run(func(args mock.Arguments) { newHash = args.String(2) }).
		Return(nil)
	ts.On("Delete", mock.Anything, int64(1)).Return(nil)

	require.NoError(t, svc.Reset(context.Background(), "a@x.com", "brand-new-pw", verificationToken))

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(newHash), []byte("brand-new-pw")))
	ts.AssertCalled(t, "Delete", mock.Anything, int64(1))
}

func TestResetProtocol_NewRequestInvalidatesPriorOTP(t *testing.T) {
	user := &domain.User{ID: 1, Email: "a@x.com"}
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)

	var hashes []string
	ts := &mockResetTokenStore{}
	ts.On("Upsert", mock.Anything, int64(1), mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { hashes = append(hashes, args.String(2)) }).
		Return(nil)

	var bodies []string
	ml := &mockMailer{}
	ml.On("SendEmail", "a@x.com", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { bodies = append(bodies, args.String(2)) }).
		Return(nil)

	svc := newService(us, ts, ml)
	require.NoError(t, svc.Request(context.Background(), "a@x.com"))
	require.NoError(t, svc.Request(context.Background(), "a@x.com"))
	require.Len(t, hashes, 2)

	firstCode := otpPattern.FindString(bodies[0])
	secondCode := otpPattern.FindString(bodies[1])

	// The slot now holds only the second hash; the first code no longer verifies.
	ts.On("GetByUserID", mock.Anything, int64(1)).
		Return(&domain.ResetToken{UserID: 1, TokenHash: hashes[1], ExpiresAt: time.Now().Add(30 * time.Minute)}, nil)

	if firstCode != secondCode {
		_, err := svc.Verify(context.Background(), "a@x.com", firstCode)
		require.ErrorIs(t, err, domain.ErrBadRequest)
	}

	ts.On("SetVerificationToken", mock.Anything, int64(1), mock.Anything).Return(nil)
	_, err := svc.Verify(context.Background(), "a@x.com", secondCode)
	require.NoError(t, err)
}
