package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file not found: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg

	return nil
}

// setDefaults 关键参数的兜底默认值
func setDefaults() {
	viper.SetDefault("server.port", 7350)
	viper.SetDefault("api.timeout", 10)
	viper.SetDefault("realtime.mode", "ws")
	viper.SetDefault("chat.page_size", 30)
	viper.SetDefault("chat.view_ack_limit", 30)
	viper.SetDefault("chat.hidden_placeholder", "[内容已隐藏]")
	viper.SetDefault("chat.snippet_limit", 50)
	viper.SetDefault("resync.spec", "@every 5m")
	viper.SetDefault("log.level", "info")
}
