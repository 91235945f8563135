package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Persona holds every fixed text the tutor shows to students: the system
// instruction sent upstream, the greeting and reset turns, and the friendly
// message substituted for each completion failure kind. Defaults are the
// built-in Traditional Chinese texts; a YAML persona file may override any
// subset of fields.
type Persona struct {
	SystemPrompt string        `yaml:"system_prompt"`
	Greeting     string        `yaml:"greeting"`
	ResetMessage string        `yaml:"reset_message"`
	Errors       PersonaErrors `yaml:"errors"`
}

// PersonaErrors are the user-facing substitutes for completion failures.
// They hint at the category without exposing internal detail.
type PersonaErrors struct {
	Unconfigured string `yaml:"unconfigured"`
	AuthFailure  string `yaml:"auth_failure"`
	RateLimited  string `yaml:"rate_limited"`
	Upstream     string `yaml:"upstream"`
	Network      string `yaml:"network"`
	Malformed    string `yaml:"malformed"`
}

// DefaultPersona returns the built-in 安安 math-tutor persona.
func DefaultPersona() Persona {
	return Persona{
		SystemPrompt: "你是數學老師安安，請用蘇格拉底式的引導教學方式協助學生。\n" +
			"規則如下：\n" +
			"1. 使用繁體中文回答。\n" +
			"2. 不直接給完整解答，要先引導學生思考下一步，並提出提示或問題。\n" +
			"3. 逐步拆解題目，讓學生一步一步回答。\n" +
			"4. 使用台灣常用的數學術語。\n" +
			"5. 語氣要親切、鼓勵，像一位耐心的小老師。\n" +
			"6. 數學式一律用純文字表示，例如 3×4=12，不要使用 LaTeX 語法。\n" +
			"7. 條列重點時直接換行，不要加項目符號。",
		Greeting:     "嗨，我是安安老師！今天想練習什麼數學題目呢？",
		ResetMessage: "對話已清除，我們重新開始吧！有什麼數學問題想問安安老師呢？",
		Errors: PersonaErrors{
			Unconfigured: "系統尚未設定 DEEPSEEK_API_KEY，請在環境變數中加入後再試一次。",
			AuthFailure:  "安安老師的鑰匙好像失效了，請通知管理員檢查 API 設定。",
			RateLimited:  "現在問問題的同學太多了，請稍等一下再送出一次。",
			Upstream:     "安安老師這邊出了一點狀況，請稍後再試一次。",
			Network:      "連線逾時了，請檢查網路後再試一次。",
			Malformed:    "安安老師收到了看不懂的回應，請再送出一次試試。",
		},
	}
}

// LoadPersona returns the default persona overlaid with any fields set in
// the YAML file at path. An empty path means defaults only.
func LoadPersona(path string) (Persona, error) {
	persona := DefaultPersona()
	if path == "" {
		return persona, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return persona, fmt.Errorf("read persona file: %w", err)
	}

	var override Persona
	if err := yaml.Unmarshal(data, &override); err != nil {
		return persona, fmt.Errorf("parse persona file: %w", err)
	}

	persona.merge(override)
	return persona, nil
}

// merge overlays non-empty override fields onto p.
func (p *Persona) merge(o Persona) {
	setIf(&p.SystemPrompt, o.SystemPrompt)
	setIf(&p.Greeting, o.Greeting)
	setIf(&p.ResetMessage, o.ResetMessage)
	setIf(&p.Errors.Unconfigured, o.Errors.Unconfigured)
	setIf(&p.Errors.AuthFailure, o.Errors.AuthFailure)
	setIf(&p.Errors.RateLimited, o.Errors.RateLimited)
	setIf(&p.Errors.Upstream, o.Errors.Upstream)
	setIf(&p.Errors.Network, o.Errors.Network)
	setIf(&p.Errors.Malformed, o.Errors.Malformed)
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
