package migrate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/custodia/walletmigrate/storage"
	"github.com/custodia/walletmigrate/wallet"
)

type fakeDestination struct {
	sample *storage.EncryptedSample
	err    error
}

func (f *fakeDestination) SampleEncryptedWallet(ctx context.Context) (*storage.EncryptedSample, error) {
	return f.sample, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func productionSample(t *testing.T, master []byte) *storage.EncryptedSample {
	t.Helper()
	enc, err := wallet.EncryptSecret(&wallet.Secret{
		Kty: "RSA", N: "prod-modulus", E: "AQAB", D: "prod-private-exponent",
	}, master)
	if err != nil {
		t.Fatalf("encrypting production sample: %v", err)
	}
	return &storage.EncryptedSample{
		EncryptedJWK: enc.Blob,
		Salt:         enc.Salt,
		Address:      "0xprod",
	}
}

func TestSelfTest(t *testing.T) {
	v := NewValidator(&fakeDestination{err: storage.ErrNoRows}, testLogger())
	if err := v.SelfTest([]byte("any-master-secret")); err != nil {
		t.Errorf("SelfTest failed: %v", err)
	}
}

func TestLiveValidate(t *testing.T) {
	prodKey := []byte("production-master-secret")
	sample := productionSample(t, prodKey)

	tests := []struct {
		name    string
		dest    *fakeDestination
		master  []byte
		wantErr error
	}{
		{"CorrectKey", &fakeDestination{sample: sample}, prodKey, nil},
		{"WrongKey", &fakeDestination{sample: sample}, []byte("wrong-master-secret"), ErrKeyMismatch},
		{"EmptyDestination", &fakeDestination{err: storage.ErrNoRows}, prodKey, nil},
		{"DestinationUnreachable", &fakeDestination{err: errors.New("dial tcp: connection refused")}, prodKey, nil},
		{
			"MalformedSample",
			&fakeDestination{sample: &storage.EncryptedSample{EncryptedJWK: "!!", Salt: "!!", Address: "0x1"}},
			prodKey,
			ErrKeyMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(tt.dest, testLogger())
			err := v.LiveValidate(context.Background(), tt.master)
			if tt.wantErr == nil && err != nil {
				t.Errorf("expected success, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLiveValidateIncompleteSample(t *testing.T) {
	// The sample decrypts but is missing required key fields: ambiguous
	// evidence, which must fail safe rather than proceed.
	master := []byte("production-master-secret")
	enc, err := wallet.EncryptSecret(&wallet.Secret{Kty: "RSA", N: "only-modulus"}, master)
	if err != nil {
		t.Fatalf("encrypting sample: %v", err)
	}

	v := NewValidator(&fakeDestination{sample: &storage.EncryptedSample{
		EncryptedJWK: enc.Blob, Salt: enc.Salt, Address: "0xbad",
	}}, testLogger())

	if err := v.LiveValidate(context.Background(), master); !errors.Is(err, ErrKeyMismatch) {
		t.Errorf("expected ErrKeyMismatch, got %v", err)
	}
}
