// Command spamguard serves the spam classification API.
//
// @title                       Spamguard API
// @version                     1.0
// @description                 Authenticated spam classification with an atomically replaceable model artifact.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import "github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/cmd/spamguard/cmd"

func main() {
	cmd.Execute()
}
