package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

func main() {
	var dsn, schemaPath string
	flag.StringVar(&dsn, "dsn", "root:123456@tcp(127.0.0.1:3306)/notebooks?charset=utf8mb4&parseTime=True&loc=Local&multiStatements=true", "mysql dsn")
	flag.StringVar(&schemaPath, "schema", "scripts/schema.sql", "path to schema file")
	flag.Parse()

	// 连接数据库
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	// 读取 SQL 文件
	sqlBytes, err := os.ReadFile(schemaPath)
	if err != nil {
		log.Fatal("Failed to read SQL file:", err)
	}

	// 分割 SQL 语句并执行
	sqlStatements := strings.Split(string(sqlBytes), ";")
	for _, stmt := range sqlStatements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" || strings.HasPrefix(stmt, "--") {
			continue
		}

		fmt.Printf("Executing: %s...\n", stmt[:min(50, len(stmt))])
		if _, err := db.Exec(stmt); err != nil {
			log.Printf("Error executing statement: %v", err)
		}
	}

	fmt.Println("Migration completed successfully!")
}
