package nutrition

import (
	"encoding/json"
	"regexp"
	"strings"

	"nutrition-tracker/internal/pkg/common"
)

var (
	fencedObjectPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	fencedBlockPattern  = regexp.MustCompile("(?s)```(?:json)?.*?```")
	fenceMarkerPattern  = regexp.MustCompile("```(?:json)?")
)

// 必要欄位
var (
	RecordFields   = []string{"dishName", "calories", "macros", "ingredients"}
	MealPlanFields = []string{"days"}
)

// Parsed 解析結果：JSON 物件與其前方的說明文字
type Parsed struct {
	JSON     string
	Object   map[string]interface{}
	Preamble string
}

// ParseResponse 從生成文字中取出 JSON 物件並檢查必要欄位是否存在
//
// 優先使用 ``` 區塊內的物件，否則取第一個 '{' 到最後一個 '}'。
// 區塊前的文字作為說明文字回傳，不與 JSON 合併。
func ParseResponse(raw string, required ...string) (*Parsed, error) {
	candidate, preamble, ok := locateJSON(raw)
	if !ok {
		return nil, &MalformedResponseError{Raw: raw, Reason: "no JSON object found"}
	}

	obj, err := decodeObject(candidate)
	if err != nil {
		return nil, &MalformedResponseError{Raw: raw, Reason: err.Error()}
	}

	for _, field := range required {
		if _, exists := obj[field]; !exists {
			return nil, &MalformedResponseError{Raw: raw, Reason: "missing field " + field}
		}
	}

	return &Parsed{
		JSON:     candidate,
		Object:   obj,
		Preamble: stripFences(preamble),
	}, nil
}

// locateJSON 找出候選 JSON 與其前方文字
func locateJSON(raw string) (candidate, preamble string, ok bool) {
	if loc := fencedObjectPattern.FindStringSubmatchIndex(raw); loc != nil {
		return raw[loc[2]:loc[3]], raw[:loc[0]], true
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return "", "", false
	}
	return raw[start : end+1], raw[:start], true
}

// decodeObject 先以標準 JSON 解析，失敗時修正常見格式問題後再試一次
func decodeObject(candidate string) (map[string]interface{}, error) {
	var obj map[string]interface{}
	err := common.ParseJSON(candidate, &obj)
	if err == nil && obj != nil {
		return obj, nil
	}

	var relaxed map[string]interface{}
	if rerr := common.ParseJSON(common.RelaxJSON(candidate), &relaxed); rerr == nil && relaxed != nil {
		return relaxed, nil
	}
	if err == nil {
		return nil, errNotObject
	}
	return nil, err
}

type parseError string

func (e parseError) Error() string { return string(e) }

const errNotObject = parseError("JSON value is not an object")

// stripFences 移除殘留的 ``` 標記
func stripFences(s string) string {
	return strings.TrimSpace(fenceMarkerPattern.ReplaceAllString(s, ""))
}

// CleanProse 移除回覆中的程式碼區塊與多餘的 ``` 標記
func CleanProse(raw string) string {
	out := fencedBlockPattern.ReplaceAllString(raw, "")
	return strings.TrimSpace(strings.ReplaceAll(out, "```", ""))
}

// Decode 將解析出的物件解碼到指定結構
func (p *Parsed) Decode(v interface{}) error {
	data, err := json.Marshal(p.Object)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
