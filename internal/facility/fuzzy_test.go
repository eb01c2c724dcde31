package facility

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	assert.Equal(t, 100.0, Ratio("BOSTON", "BOSTON"))
	assert.Equal(t, 100.0, Ratio("", ""))
	assert.Equal(t, 0.0, Ratio("abc", "xyz"))
	assert.InDelta(t, 96.55, Ratio("this is a test", "this is a test!"), 0.01)
	assert.InDelta(t, 66.67, Ratio("abcd", "ab"), 0.01)
}

func TestRatioIsCaseSensitive(t *testing.T) {
	assert.InDelta(t, 16.67, Ratio("Boston", "BOSTON"), 0.01)
	assert.Equal(t, 0.0, PartialRatio("boston", "SOUTH BOSTON"))
	assert.InDelta(t, 10.53, TokenSetRatio("SAINT MARY HOSPITAL", "saint mary hospital"), 0.01)
}

func TestPartialRatio(t *testing.T) {
	assert.Equal(t, 100.0, PartialRatio("BOSTON", "SOUTH BOSTON"))
	assert.Equal(t, 100.0, PartialRatio("SOUTH BOSTON", "BOSTON"))
	assert.Equal(t, 0.0, PartialRatio("", "BOSTON"))
	assert.Equal(t, 100.0, PartialRatio("", ""))
	assert.Less(t, PartialRatio("WORCESTER", "BOSTON"), 60.0)
}

func TestTokenSetRatio(t *testing.T) {
	assert.Equal(t, 100.0,
		TokenSetRatio("MASSACHUSETTS GENERAL HOSPITAL", "GENERAL HOSPITAL MASSACHUSETTS"))
	assert.Equal(t, 100.0,
		TokenSetRatio("GENERAL HOSPITAL", "MASSACHUSETTS GENERAL HOSPITAL"))
	assert.Equal(t, 0.0, TokenSetRatio("", "anything"))
	assert.Equal(t, 0.0, TokenSetRatio("   ", "anything"))

	assert.Equal(t, 100.0,
		TokenSetRatio("MASSACHUSETTS GENERAL HOSPITAL", "MASSACHUSETTS GENERAL HOSPITAL CANCER CENTER"))
	assert.Equal(t, 100.0,
		TokenSetRatio("BRIGHAM AND WOMENS HOSPITAL", "BRIGHAM AND WOMENS FAULKNER HOSPITAL"))

	mixed := TokenSetRatio("MERCY MEDICAL CENTER", "MERCY HOSPITAL")
	assert.Greater(t, mixed, 40.0)
	assert.Less(t, mixed, 100.0)

	assert.Less(t, TokenSetRatio("MAYO CLINIC", "STANFORD HEALTH CARE"), 50.0)
}

func TestTokenSetRatioKeepsPunctuation(t *testing.T) {
	// "HOSPITAL," and "HOSPITAL" are different tokens
	assert.InDelta(t, 89.80,
		TokenSetRatio("JOHNS HOPKINS HOSPITAL", "JOHNS HOPKINS HOSPITAL, THE"), 0.01)
	assert.InDelta(t, 94.44,
		TokenSetRatio("ST. MARY'S HOSPITAL", "ST MARYS HOSPITAL"), 0.01)
}

func TestLCS(t *testing.T) {
	assert.Equal(t, 0, lcs(nil, []rune("abc")))
	assert.Equal(t, 3, lcs([]rune("abc"), []rune("aXbXc")))
	assert.Equal(t, 1, lcs([]rune("ab"), []rune("ba")))
}
