package flows

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessInput(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"splits and trims", "кардиолог, невролог", []string{"Кардиолог", "Невролог"}},
		{"drops empties", "лор,, , терапевт", []string{"Лор", "Терапевт"}},
		{"dedupes after capitalization", "Хирург, хирург", []string{"Хирург"}},
		{"preserves order", "б, а, в", []string{"Б", "А", "В"}},
		{"all empty", " , ,", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ProcessInput(tc.raw, ","))
		})
	}
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Врач", Capitalize("врач"))
	assert.Equal(t, "Doctor", Capitalize("doctor"))
	assert.Equal(t, "", Capitalize(""))
}

func TestTransformName(t *testing.T) {
	assert.Equal(t, "Иванов И. И.", TransformName("Иванов Иван Иванович"))
	assert.Equal(t, "Петрова А.", TransformName("Петрова Анна"))
	assert.Equal(t, "Сидоров", TransformName("  Сидоров  "))
	assert.Equal(t, "", TransformName(""))
}

func TestCheckInteger(t *testing.T) {
	n, ok := CheckInteger(" 2500 ")
	assert.True(t, ok)
	assert.Equal(t, 2500, n)

	_, ok = CheckInteger("-1")
	assert.False(t, ok)

	_, ok = CheckInteger("дорого")
	assert.False(t, ok)

	n, ok = CheckInteger("0")
	assert.True(t, ok)
	assert.Zero(t, n)
}

func TestCheckPhone(t *testing.T) {
	valid := []string{
		"+79161234567",
		"89161234567",
		"79161234567",
		"9161234567",
		"8 (916) 123-45-67",
	}
	for _, s := range valid {
		assert.True(t, CheckPhone(s), s)
	}

	invalid := []string{
		"",
		"12345",
		"+19161234567",
		"69161234567",
		"891612345678",
		"телефон",
	}
	for _, s := range invalid {
		assert.False(t, CheckPhone(s), s)
	}
}

func TestStandardizePhone(t *testing.T) {
	assert.Equal(t, "+79161234567", StandardizePhone("8 (916) 123-45-67"))
	assert.Equal(t, "+79161234567", StandardizePhone("+79161234567"))
	assert.Equal(t, "+79161234567", StandardizePhone("9161234567"))
}
