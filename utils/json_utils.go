package utils

import (
	"encoding/json"
	"fmt"
)

// MapToJSONString 将map转换为JSON字符串
func MapToJSONString(m map[string]interface{}) (string, error) {
	jsonData, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("map转换为JSON失败: %v", err)
	}
	return string(jsonData), nil
}

// JSONStringToMap 将JSON字符串转换为map，空字符串返回空map
func JSONStringToMap(jsonStr string) (map[string]interface{}, error) {
	result := map[string]interface{}{}
	if jsonStr == "" {
		return result, nil
	}
	err := json.Unmarshal([]byte(jsonStr), &result)
	if err != nil {
		return nil, fmt.Errorf("JSON转换为map失败: %v", err)
	}
	return result, nil
}

// SliceToJSONString 将字符串切片转换为JSON数组字符串
func SliceToJSONString(items []string) string {
	jsonData, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(jsonData)
}
