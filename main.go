// @title Wellcoach Training API
// @version 1.0
// @description 训练模块进度、练习提交、证书与书签笔记服务。

// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import "wellcoach_backend/cmd"

func main() {
	cmd.Execute()
}
