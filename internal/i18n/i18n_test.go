package i18n

import (
    "testing"

    gi18n "github.com/nicksnyder/go-i18n/v2/i18n"
)

func TestTranslation(t *testing.T) {
    cases := []struct {
        lang, expected string
    }{
        {"en", "no generation parameters found in PNG"},
        {"zh", "PNG 中没有找到生成参数"},
        {"zh-CN", "PNG 中没有找到生成参数"},
        {"fr", "no generation parameters found in PNG"},
    }

    for _, tc := range cases {
        tc := tc
        t.Run(tc.lang, func(t *testing.T) {
            loc, err := Init(tc.lang)
            if err != nil {
                t.Fatalf("init failed: %v", err)
            }
            msg, err := loc.Localize(&gi18n.LocalizeConfig{MessageID: "input_error_png_no_parameters"})
            if err != nil {
                t.Fatalf("localize failed: %v", err)
            }
            if msg != tc.expected {
                t.Fatalf("unexpected translation (%s): %q", tc.lang, msg)
            }
        })
    }
}

func TestTUnknownIDFallsBack(t *testing.T) {
    if _, err := Init("en"); err != nil {
        t.Fatalf("init failed: %v", err)
    }
    if got := T("no_such_message"); got != "no_such_message" {
        t.Fatalf("T returned %q", got)
    }
    if got := T("cli_copied"); got != "output copied to clipboard" {
        t.Fatalf("T returned %q", got)
    }
}

func TestNormalizeLocale(t *testing.T) {
    cases := []struct {
        in, want string
        ok       bool
    }{
        {"zh_CN.UTF-8", "zh-CN", true},
        {"en_US", "en-US", true},
        {"de_DE@euro", "de-DE", true},
        {"C", "", false},
        {"", "", false},
    }
    for _, tc := range cases {
        got, ok := normalizeLocale(tc.in)
        if got != tc.want || ok != tc.ok {
            t.Fatalf("normalizeLocale(%q) = %q, %v", tc.in, got, ok)
        }
    }
}
