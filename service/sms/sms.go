package sms

import (
	"fmt"

	"kol_crm/config"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	dysmsapi20170525 "github.com/alibabacloud-go/dysmsapi-20170525/v5/client"
	util "github.com/alibabacloud-go/tea-utils/v2/service"
	"github.com/alibabacloud-go/tea/tea"
)

// CreateClient 创建短信客户端，凭证来自环境变量配置
func CreateClient(cfg config.Config) (*dysmsapi20170525.Client, error) {
	if cfg.SMSConfig.AccessKeyID == "" || cfg.SMSConfig.AccessKeySecret == "" {
		return nil, fmt.Errorf("短信凭证未配置")
	}

	clientConfig := &openapi.Config{
		AccessKeyId:     tea.String(cfg.SMSConfig.AccessKeyID),
		AccessKeySecret: tea.String(cfg.SMSConfig.AccessKeySecret),
	}
	// Endpoint 请参考 https://api.aliyun.com/product/Dysmsapi
	clientConfig.Endpoint = tea.String("dysmsapi.aliyuncs.com")
	return dysmsapi20170525.NewClient(clientConfig)
}

// SendCommissionPaidSms 佣金支付完成后向KOL发送短信通知
// 凭证未配置时返回错误，调用方按尽力而为处理
func SendCommissionPaidSms(cfg config.Config, phoneNumber string, month string, amount float64) (*string, error) {
	client, err := CreateClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("创建客户端失败: %v", err)
	}

	sendSmsRequest := &dysmsapi20170525.SendSmsRequest{
		PhoneNumbers:  tea.String(phoneNumber),
		SignName:      tea.String(cfg.SMSConfig.SignName),
		TemplateCode:  tea.String(cfg.SMSConfig.TemplateCode),
		TemplateParam: tea.String(fmt.Sprintf("{\"month\":\"%s\",\"amount\":\"%.0f\"}", month, amount)),
	}
	runtime := &util.RuntimeOptions{}

	resp, err := client.SendSmsWithOptions(sendSmsRequest, runtime)
	if err != nil {
		sdkErr := &tea.SDKError{}
		if t, ok := err.(*tea.SDKError); ok {
			sdkErr = t
		} else {
			sdkErr.Message = tea.String(err.Error())
		}
		return nil, fmt.Errorf("发送短信失败: %s", tea.StringValue(sdkErr.Message))
	}

	return util.ToJSONString(resp), nil
}
