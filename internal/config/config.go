package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppConfig      *AppConfig
	BrowserConfig  *BrowserConfig
	LocatorConfig  *LocatorConfig
	RecorderConfig *RecorderConfig
}

type AppConfig struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	Debug     bool   `envconfig:"DEBUG" default:"false"`
	LogFile   string `envconfig:"LOG_FILE" default:"recorded_elements.log"`
	TraceFile string `envconfig:"TRACE_FILE" default:""`
}

type BrowserConfig struct {
	Headless    bool          `envconfig:"BROWSER_HEADLESS" default:"false"`
	SlowMo      int           `envconfig:"BROWSER_SLOW_MO" default:"0"`
	Timeout     int           `envconfig:"BROWSER_TIMEOUT" default:"30000"`
	UserDataDir string        `envconfig:"BROWSER_USER_DATA_DIR" default:""`
	Highlight   time.Duration `envconfig:"BROWSER_HIGHLIGHT" default:"1s"`
}

// LocatorConfig tunes candidate generation and replay-time resolution. The keyword
// lists drive structural path class classification.
type LocatorConfig struct {
	Timeout           time.Duration `envconfig:"LOCATOR_TIMEOUT" default:"10s"`
	PollInterval      time.Duration `envconfig:"LOCATOR_POLL_INTERVAL" default:"100ms"`
	MaxPathDepth      int           `envconfig:"LOCATOR_MAX_PATH_DEPTH" default:"10"`
	MaxAlternates     int           `envconfig:"LOCATOR_MAX_ALTERNATES" default:"3"`
	ContainerSuffixes []string      `envconfig:"LOCATOR_CONTAINER_SUFFIXES" default:"container,wrapper,module,holder,box"`
	ContainerKeywords []string      `envconfig:"LOCATOR_CONTAINER_KEYWORDS" default:"header,footer,main,sidebar,aside"`
	SkipSuffixes      []string      `envconfig:"LOCATOR_SKIP_SUFFIXES" default:"item,text,content,inner,link,btn,button,icon,img,title,desc"`
	SkipPrefixes      []string      `envconfig:"LOCATOR_SKIP_PREFIXES" default:"layout,page,section"`
}

type RecorderConfig struct {
	ScenarioFile   string   `envconfig:"RECORDER_SCENARIO_FILE" default:"scenario.yaml"`
	TableFile      string   `envconfig:"RECORDER_TABLE_FILE" default:"scenario.steps"`
	ScreenshotsDir string   `envconfig:"RECORDER_SCREENSHOTS_DIR" default:"screenshots"`
	CasePrefix     string   `envconfig:"RECORDER_CASE_PREFIX" default:"Case"`
	InputKeywords  []string `envconfig:"RECORDER_INPUT_KEYWORDS" default:"输入框,搜索框,文本框,input"`
	CustomKeywords []string `envconfig:"RECORDER_CUSTOM_KEYWORDS" default:"添加,自定义元素,custom,add"`
	HoverKeywords  []string `envconfig:"RECORDER_HOVER_KEYWORDS" default:"悬浮,鼠标悬浮,hover"`
	WindowKeywords []string `envconfig:"RECORDER_WINDOW_KEYWORDS" default:"窗口,切换窗口,windows"`
	ExitKeywords   []string `envconfig:"RECORDER_EXIT_KEYWORDS" default:"quit,exit,退出"`
}

func GetConfig() (*Config, error) {
	_ = godotenv.Load()

	var conf Config

	if err := envconfig.Process("", &conf); err != nil {
		return nil, fmt.Errorf("read config from env vars: %w", err)
	}

	return &conf, nil
}
