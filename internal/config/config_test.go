package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyReloadableSwapsOnlyReloadableSections(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Port: "8080", Mode: "debug"},
		JWT:    JWTConfig{Secret: "old-secret"},
		Mail:   MailConfig{Provider: "console", SendTimeout: 10 * time.Second},
		Cache:  CacheConfig{CourseTTLMinutes: 10},
		CORS:   CORSConfig{AllowedOrigins: []string{"http://a.local"}},
	}
	fresh := &Config{
		Server: ServerConfig{Port: "9090", Mode: "release"},
		JWT:    JWTConfig{Secret: "new-secret"},
		Mail:   MailConfig{Provider: "sendgrid", SendTimeout: 5 * time.Second},
		Cache:  CacheConfig{CourseTTLMinutes: 30},
		CORS:   CORSConfig{AllowedOrigins: []string{"http://b.local"}},
	}

	cfg.ApplyReloadable(fresh)

	assert.Equal(t, "sendgrid", cfg.MailSettings().Provider)
	assert.Equal(t, 5*time.Second, cfg.MailSettings().SendTimeout)
	assert.Equal(t, 30, cfg.CacheSettings().CourseTTLMinutes)
	assert.Equal(t, []string{"http://b.local"}, cfg.CORSSettings().AllowedOrigins)

	// 非热更新段保持启动时的值
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "old-secret", cfg.JWT.Secret)
}

// 快照读取与热更新并发执行不得出现数据竞争（-race 下验证）
func TestReloadableSnapshotsConcurrent(t *testing.T) {
	cfg := &Config{
		Mail:  MailConfig{SendTimeout: 10 * time.Second, TemplateDir: "./a"},
		Cache: CacheConfig{CourseTTLMinutes: 10},
		CORS:  CORSConfig{AllowedOrigins: []string{"http://a.local"}},
	}
	fresh := &Config{
		Mail:  MailConfig{SendTimeout: 5 * time.Second, TemplateDir: "./b"},
		Cache: CacheConfig{CourseTTLMinutes: 30},
		CORS:  CORSConfig{AllowedOrigins: []string{"http://b.local"}},
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			cfg.ApplyReloadable(fresh)
		}
	}()

	for i := 0; i < 500; i++ {
		mail := cfg.MailSettings()
		assert.NotZero(t, mail.SendTimeout)
		assert.NotEmpty(t, cfg.CORSSettings().AllowedOrigins)
		assert.NotZero(t, cfg.CacheSettings().CourseTTLMinutes)
	}
	<-done
}
