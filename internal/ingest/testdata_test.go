package ingest

const weatherBody = `{"hours":[{"time":"2026-10-16T00:00:00+00:00","waveHeight":{"sg":1.2,"noaa":1.1}},{"time":"2026-10-16T01:00:00+00:00","waveHeight":{"sg":1.45}},{"time":"2026-10-16T02:00:00+00:00"}],"meta":{"cost":1,"dailyQuota":10,"lat":38.96,"lng":-9.42,"params":["waveHeight"]}}`

const tidesBody = `{"data":[{"height":1.21,"time":"2026-10-15T21:04:00+00:00","type":"high"},{"height":-1.08,"time":"2026-10-16T03:18:00+00:00","type":"low"},{"height":1.3,"time":"2026-10-16T09:27:00+00:00","type":"high"}],"meta":{"station":{"name":"cascais"}}}`

const astronomyBody = `{"data":[{"astronomicalDawn":"2026-10-16T05:52:00+00:00","astronomicalDusk":"2026-10-16T19:28:00+00:00","civilDawn":"2026-10-16T06:53:00+00:00","civilDusk":"2026-10-16T18:27:00+00:00","moonFraction":0.21,"moonPhase":{"closest":{"text":"First quarter","time":"2026-10-19T13:00:00+00:00","value":0.25},"current":{"text":"Waxing crescent","time":"2026-10-16T00:00:00+00:00","value":0.18}},"moonrise":"2026-10-16T11:40:00+00:00","moonset":"2026-10-16T21:02:00+00:00","nauticalDawn":"2026-10-16T06:22:00+00:00","nauticalDusk":"2026-10-16T18:58:00+00:00","sunrise":"2026-10-16T07:20:00+00:00","sunset":"2026-10-16T18:00:00+00:00","time":"2026-10-16T00:00:00+00:00"},{"sunrise":"2026-10-17T07:21:00+00:00","time":"2026-10-17T00:00:00+00:00"}]}`
