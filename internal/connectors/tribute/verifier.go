// Package tribute - платёжная платформа tribute.tg, основной источник
// выручки корпорации. Здесь проверка подписей вебхуков, идемпотентное
// хранилище событий и клиент REST API.
package tribute

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Project описывает один монетизируемый проект.
type Project struct {
	Channel     string // имя канала в revenue-трекере
	DisplayName string
}

// Projects - проекты, от которых приходят вебхуки. Ключ совпадает
// со значением ?project= в URL вебхука.
var Projects = map[string]Project{
	"krmktl":   {Channel: "krmktl", DisplayName: "Крипто Маркетологи"},
	"sborka":   {Channel: "sborka", DisplayName: "СБОРКА"},
	"botanica": {Channel: "botanica", DisplayName: "Ботаника"},
}

// DisplayName возвращает человекочитаемое имя проекта.
func DisplayName(project string) string {
	if p, ok := Projects[project]; ok {
		return p.DisplayName
	}
	if project == "" {
		return "Unknown"
	}
	return project
}

// Keys - API-ключи Tribute: по ключу на проект плюс общий запасной.
type Keys struct {
	ByProject map[string]string
	Default   string
}

// ForProject возвращает ключ проекта, при его отсутствии общий.
func (k Keys) ForProject(project string) string {
	if key, ok := k.ByProject[project]; ok && key != "" {
		return key
	}
	return k.Default
}

// Match проверяет подпись всеми известными ключами. Возвращает имя
// совпавшего проекта, пустую строку для общего ключа и ok=false,
// если не подошёл ни один.
func (k Keys) Match(body []byte, signature string) (project string, ok bool) {
	for name := range Projects {
		key := k.ByProject[name]
		if key != "" && VerifySignature(body, signature, key) {
			return name, true
		}
	}
	if k.Default != "" && VerifySignature(body, signature, k.Default) {
		return "", true
	}
	return "", false
}

// VerifySignature сверяет заголовок trbt-signature: hex от HMAC-SHA256
// тела запроса. Сравнение за константное время.
func VerifySignature(body []byte, signature, apiKey string) bool {
	mac := hmac.New(sha256.New, []byte(apiKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign считает подпись тела. Нужна тестам и локальной отладке вебхука.
func Sign(body []byte, apiKey string) string {
	mac := hmac.New(sha256.New, []byte(apiKey))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
