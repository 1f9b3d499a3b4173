package scene

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRemoteTarget(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		settings RemoteSettings
		expected remoteTarget
		wantErr  bool
	}{
		{
			name:     "user in url",
			url:      "sftp://tester@build-host/scenes/smoke.yaml",
			expected: remoteTarget{user: "tester", host: "build-host", port: 22, path: "/scenes/smoke.yaml"},
		},
		{
			name:     "user from settings and custom port",
			url:      "sftp://build-host:2222/scenes/smoke.yaml",
			settings: RemoteSettings{User: "ci"},
			expected: remoteTarget{user: "ci", host: "build-host", port: 2222, path: "/scenes/smoke.yaml"},
		},
		{
			name:    "no user",
			url:     "sftp://build-host/scenes/smoke.yaml",
			wantErr: true,
		},
		{
			name:    "no path",
			url:     "sftp://ci@build-host/",
			wantErr: true,
		},
		{
			name:    "no host",
			url:     "sftp:///scenes/smoke.yaml",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.url)
			require.NoError(t, err)

			got, err := parseRemoteTarget(u, tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRemoteTargetFullHost(t *testing.T) {
	target := remoteTarget{host: "10.0.0.4", port: 2222}
	assert.Equal(t, "10.0.0.4:2222", target.fullHost())
}

func TestFetchRemoteManifestRequiresKey(t *testing.T) {
	host, _ := newTestHost(t)

	_, err := host.Load(context.Background(), "sftp://ci@build-host/scenes/smoke.yaml")
	require.ErrorIs(t, err, ErrLoad)
	assert.Contains(t, err.Error(), "no SSH private key configured")
}
