package main

import "github.com/stoik/mailview/services/mail-service/internal/app"

func main() {
	app.Execute()
}
