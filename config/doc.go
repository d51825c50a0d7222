/*
Package config defines the configuration of ipreport runs and servers, with
defaults that can be overridden from a YAML configuration file and then from
CLI flags.

A [Config] is a plain value: it gets validated once and then handed to the
components at construction time, which never change it afterwards.

	lookup:
	  provider: ip-api
	  url: http://ip-api.com/json/
	  timeout: 10s
	  workers: 1
	pacing:
	  policy: cooldown
	  rate_limit: 45
	  cooldown: 60s
	storage:
	  dir: uploads
	server:
	  listen: localhost:5000
*/
package config
