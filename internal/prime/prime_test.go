package prime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_isPrime(t *testing.T) {
	tests := []struct {
		number   float64
		expected bool
	}{
		{number: 0, expected: false},
		{number: 1, expected: false},
		{number: 2, expected: true},
		{number: 3, expected: true},
		{number: 4, expected: false},
		{number: 97, expected: true},
		{number: 7918, expected: false},
		{number: 7919, expected: true},
		{number: -7, expected: false},
		{number: 7.5, expected: false},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, isPrime(test.number), "isPrime(%v)", test.number)
	}
}

func Test_respond(t *testing.T) {
	tests := []struct {
		name     string
		given    string
		expected string
		ok       bool
	}{
		{
			name:     "prime",
			given:    `{"method":"isPrime","number":7}`,
			expected: `{"method":"isPrime","prime":true}`,
			ok:       true,
		},
		{
			name:     "not prime",
			given:    `{"method":"isPrime","number":8}`,
			expected: `{"method":"isPrime","prime":false}`,
			ok:       true,
		},
		{
			name:     "float is never prime",
			given:    `{"method":"isPrime","number":7.5}`,
			expected: `{"method":"isPrime","prime":false}`,
			ok:       true,
		},
		{
			name:     "extraneous fields are ignored",
			given:    `{"method":"isPrime","number":13,"extra":true}`,
			expected: `{"method":"isPrime","prime":true}`,
			ok:       true,
		},
		{
			name:     "not JSON",
			given:    `this is not json`,
			expected: `{"method":"Malformed"}`,
			ok:       false,
		},
		{
			name:     "missing number",
			given:    `{"method":"isPrime"}`,
			expected: `{"method":"Malformed"}`,
			ok:       false,
		},
		{
			name:     "wrong method",
			given:    `{"method":"isOdd","number":7}`,
			expected: `{"method":"Malformed"}`,
			ok:       false,
		},
		{
			name:     "string number",
			given:    `{"method":"isPrime","number":"7"}`,
			expected: `{"method":"Malformed"}`,
			ok:       false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			response, ok := respond([]byte(test.given))
			assert.Equal(t, test.expected, string(response))
			assert.Equal(t, test.ok, ok)
		})
	}
}
