// @title           offerwise API
// @version         1.0
// @description     选校推荐与候选池管理服务 API.
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:4000
// @BasePath        /

package main

import "offerwise_backend/internal/app"

func main() {
	app.Run()
}
