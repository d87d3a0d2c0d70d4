package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want string
	}{
		{
			name: "полный адрес с хостом и портом",
			addr: "localhost:8080",
			want: "localhost:8080",
		},
		{
			name: "только порт с двоеточием",
			addr: ":8080",
			want: ":8080",
		},
		{
			name: "только номер порта",
			addr: "8080",
			want: ":8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validateAddress(tt.addr))
		})
	}
}

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "URL со схемой http",
			url:  "http://localhost:8080",
			want: "http://localhost:8080",
		},
		{
			name: "URL со схемой https",
			url:  "https://short.example",
			want: "https://short.example",
		},
		{
			name: "URL без схемы",
			url:  "localhost:8080",
			want: "http://localhost:8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validateBaseURL(tt.url))
		})
	}
}
