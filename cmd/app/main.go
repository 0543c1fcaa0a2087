// @title Industrial Gateway API
// @version 1.0.0
// @description API шлюза промышленных протоколов: подключения OPC UA и Ethernet/IP, обзор адресного пространства, чтение тегов и отправка данных в Kafka.
// @host localhost:8080
// @BasePath /api/v1
package main

import "github.com/iwtcode/industrialGateway/internal/app"

func main() {
	// Создаем и запускаем новый экземпляр приложения fx
	app.New().Run()
}
