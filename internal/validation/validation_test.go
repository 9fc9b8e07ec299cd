package validation

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/hydrate/internal/apperror"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("ada@example.com"))
	assert.ErrorIs(t, ValidateEmail(""), apperror.ErrValidation)
	assert.ErrorIs(t, ValidateEmail("not-an-email"), apperror.ErrValidation)
	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM "))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("correct horse battery"))
	assert.Error(t, ValidatePassword("short"))
	assert.Error(t, ValidatePassword("mypassword99"))
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		amount int
		ok     bool
	}{
		{250, true},
		{MaxIntakeMl, true},
		{0, false},
		{-100, false},
		{MaxIntakeMl + 1, false},
	}
	for _, tt := range tests {
		err := ValidateAmount(tt.amount)
		if tt.ok {
			assert.NoError(t, err, tt.amount)
		} else {
			assert.ErrorIs(t, err, apperror.ErrValidation, tt.amount)
		}
	}
}

func TestValidateDailyGoal(t *testing.T) {
	assert.NoError(t, ValidateDailyGoal(2500))
	assert.Error(t, ValidateDailyGoal(100))
	assert.Error(t, ValidateDailyGoal(20000))
}

func TestValidateAnalyticsPeriod(t *testing.T) {
	for _, days := range []int{7, 30, 90} {
		assert.NoError(t, ValidateAnalyticsPeriod(days))
	}
	assert.ErrorIs(t, ValidateAnalyticsPeriod(1<<62), ErrInvalidPeriod)
	assert.ErrorIs(t, ValidateAnalyticsPeriod(0), apperror.ErrValidation)
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("sound", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["sound"][0]
}

func wavHeader() []byte {
	head := []byte("RIFF\x24\x00\x00\x00WAVEfmt ")
	return append(head, make([]byte, 64)...)
}

func TestValidateFile_Sound(t *testing.T) {
	assert.NoError(t, ValidateFile(fileHeader(t, "ding.wav", wavHeader()), SoundConstraints))

	err := ValidateFile(fileHeader(t, "ding.mp3", []byte("plain text, not audio")), SoundConstraints)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	err = ValidateFile(fileHeader(t, "ding.exe", wavHeader()), SoundConstraints)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	big := append(wavHeader(), make([]byte, 101<<10)...)
	err = ValidateFile(fileHeader(t, "big.wav", big), SoundConstraints)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	assert.Error(t, ValidateFile(fileHeader(t, "x.wav", wavHeader())))
}
