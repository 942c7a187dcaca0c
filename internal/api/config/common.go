package config

// Config 配置主体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	API      APIConfig      `mapstructure:"api"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Resync   ResyncConfig   `mapstructure:"resync"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig 本地边车服务配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// APIConfig 远端 IM 网关配置
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Token   string `mapstructure:"token"`
	Timeout int    `mapstructure:"timeout"` // 秒
}

// RealtimeConfig 实时通道配置，mode 可选 ws / redis
type RealtimeConfig struct {
	Mode       string      `mapstructure:"mode"`
	GatewayURL string      `mapstructure:"gateway_url"`
	Redis      RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// ChatConfig 会话同步参数
type ChatConfig struct {
	PageSize          int    `mapstructure:"page_size"`
	ViewAckLimit      int    `mapstructure:"view_ack_limit"`
	HiddenPlaceholder string `mapstructure:"hidden_placeholder"`
	SnippetLimit      int    `mapstructure:"snippet_limit"` // 回复引用摘要的最大长度
}

// ResyncConfig 周期性补偿同步配置
type ResyncConfig struct {
	Enable bool   `mapstructure:"enable"`
	Spec   string `mapstructure:"spec"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}
