package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPasswordConfig(t *testing.T) {
	tests := []struct {
		name       string
		bcryptCost string
		pepper     string
		wantCost   int
		wantErr    bool
	}{
		{name: "default cost", wantCost: 12},
		{name: "valid cost", bcryptCost: "12", wantCost: 12},
		{name: "boundary cost 10", bcryptCost: "10", wantCost: 10},
		{name: "boundary cost 14", bcryptCost: "14", wantCost: 14},
		{name: "cost too low", bcryptCost: "9", wantErr: true},
		{name: "cost too high", bcryptCost: "15", wantErr: true},
		{name: "invalid cost", bcryptCost: "invalid", wantErr: true},
		{name: "whitespace cost", bcryptCost: "  12  ", wantErr: true},
		{name: "with pepper", bcryptCost: "12", pepper: "test-pepper", wantCost: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.bcryptCost == "" {
				unsetEnv(t, "BCRYPT_COST")
			} else {
				t.Setenv("BCRYPT_COST", tt.bcryptCost)
			}
			if tt.pepper == "" {
				unsetEnv(t, "PASSWORD_PEPPER")
			} else {
				t.Setenv("PASSWORD_PEPPER", tt.pepper)
			}

			cfg, err := NewPasswordConfig()
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCost, cfg.BcryptCost)
			assert.Equal(t, tt.pepper, cfg.Pepper)
		})
	}
}

func TestPasswordConfig_HashAndVerify(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}

	hash, err := cfg.HashPassword("correct-horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", hash)
	assert.True(t, cfg.VerifyPassword("correct-horse", hash))
	assert.False(t, cfg.VerifyPassword("wrong-horse", hash))
}

func TestPasswordConfig_PepperChangesVerification(t *testing.T) {
	peppered := &PasswordConfig{BcryptCost: 10, Pepper: "pepper"}
	plain := &PasswordConfig{BcryptCost: 10}

	hash, err := peppered.HashPassword("secret-pass")
	require.NoError(t, err)
	assert.True(t, peppered.VerifyPassword("secret-pass", hash))
	assert.False(t, plain.VerifyPassword("secret-pass", hash), "hash made with a pepper must not verify without it")
}
