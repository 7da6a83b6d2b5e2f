package main

import "github.com/SAP-F-2025/profile-service/cmd/profilectl/cmd"

func main() {
	cmd.Execute()
}
