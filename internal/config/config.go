package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const ENV_PREFIX = "UNDERCOVER"

type WordPair struct {
	Citizen    string `mapstructure:"citizen"`
	Undercover string `mapstructure:"undercover"`
}

type AppConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	// 展示端静态文件目录，为空时不挂载
	StaticDir string `mapstructure:"static_dir"`
	// 二维码和加入链接使用的对外地址
	PublicURL string `mapstructure:"public_url"`

	SessionTTL time.Duration `mapstructure:"session_ttl"`
	// 非 0 时每局的随机结果可复现
	Seed uint64 `mapstructure:"seed"`

	WordPairs []WordPair `mapstructure:"word_pairs"`
}

func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *AppConfig) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("端口不合法: %d", c.Port))
	}

	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("会话过期时间必须大于 0: %s", c.SessionTTL))
	}

	for i, pair := range c.WordPairs {
		if strings.TrimSpace(pair.Citizen) == "" || strings.TrimSpace(pair.Undercover) == "" {
			errs = append(errs, fmt.Errorf("第 %d 组词语不完整", i))
		}
	}

	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("static_dir", "")
	v.SetDefault("public_url", "http://localhost:8080")
	v.SetDefault("session_ttl", "30m")
	v.SetDefault("seed", 0)
}

// LoadConfig 依次读取 .env、配置文件和 UNDERCOVER_ 前缀的环境变量。
// path 为空时在当前目录查找 app_config.json，找不到则只使用默认值。
func LoadConfig(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("加载 .env 失败: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("app_config")
		v.SetConfigType("json")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("加载配置失败: %w", err)
		}
	}

	var config AppConfig

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("配置不合法: %w", err)
	}

	return &config, nil
}

// InitConfig 在启动时加载配置，失败直接退出
func InitConfig(path string) *AppConfig {
	config, err := LoadConfig(path)
	if err != nil {
		panic(err)
	}

	return config
}
