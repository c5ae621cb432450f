package response

// 业务错误码定义
const (
	// 成功
	CodeSuccess = 0

	// 客户端错误 (400xx)
	CodeBadRequest    = 40000 // 请求参数错误
	CodeInvalidParams = 40001 // 参数验证失败

	// 认证错误 (401xx)
	CodeUnauthorized       = 40100 // 未认证
	CodeSessionExpired     = 40101 // 会话已过期
	CodeInvalidCredentials = 40103 // 邮箱或密码错误

	// 资源错误 (404xx)
	CodeNotFound     = 40400 // 资源不存在
	CodeUserNotFound = 40401 // 用户不存在

	// 业务冲突 (409xx)
	CodeConflict      = 40900 // 资源冲突
	CodeEmailExists   = 40901 // 邮箱已注册
	CodeUsernameTaken = 40902 // 用户名已存在

	// 限流 (429xx)
	CodeTooManyRequests = 42900 // 请求过于频繁
	CodeLoginLocked     = 42901 // 登录失败次数过多

	// 服务端错误 (500xx)
	CodeInternalServerError = 50000 // 服务器内部错误
	CodeDatabaseError       = 50001 // 数据库错误
	CodeRedisError          = 50003 // Redis错误
	CodeServiceUnavailable  = 50300 // 服务不可用
)

// CodeMessage 错误信息映射
var CodeMessage = map[int]string{
	CodeSuccess: "OK",

	CodeBadRequest:    "请求参数错误",
	CodeInvalidParams: "参数验证失败",

	CodeUnauthorized:       "未认证",
	CodeSessionExpired:     "会话已过期",
	CodeInvalidCredentials: "邮箱或密码错误",

	CodeNotFound:     "资源不存在",
	CodeUserNotFound: "用户不存在",

	CodeConflict:      "资源冲突",
	CodeEmailExists:   "邮箱已注册",
	CodeUsernameTaken: "用户名已存在",

	CodeTooManyRequests: "请求过于频繁",
	CodeLoginLocked:     "登录失败次数过多，请稍后再试",

	CodeInternalServerError: "服务器内部错误",
	CodeDatabaseError:       "数据库错误",
	CodeRedisError:          "Redis错误",
	CodeServiceUnavailable:  "服务不可用",
}

// GetMessage 获取错误码对应的消息
func GetMessage(code int) string {
	if msg, ok := CodeMessage[code]; ok {
		return msg
	}
	return "未知错误"
}
